package installer

import (
	"fmt"
)

type ErrInstallLaunchFailed struct {
	ArtifactPath string
	Err          error
}

func (e ErrInstallLaunchFailed) Error() string {
	return fmt.Sprintf("unable to launch the installer '%s': %v", e.ArtifactPath, e.Err)
}

func (e ErrInstallLaunchFailed) Unwrap() error {
	return e.Err
}

type ErrUnattendedUnsupported struct {
	ArtifactPath string
}

func (e ErrUnattendedUnsupported) Error() string {
	return fmt.Sprintf("this platform has no unattended installer, apply '%s' manually", e.ArtifactPath)
}
