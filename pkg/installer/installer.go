package installer

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Runner launches a process that must survive the exit of the current
// one. Only the launch result is reported: the installer's eventual
// exit code is never observed, because we will be gone by then.
type Runner interface {
	StartDetached(ctx context.Context, name string, args ...string) error
}

// Invoker hands the staged artifact over to the platform installer.
type Invoker struct {
	Runner Runner
}

func New() *Invoker {
	return &Invoker{Runner: execRunner{}}
}

// Unattended reports whether this platform has an unattended installer
// mechanism. When false, Install is refused and the artifact is left for
// the user to apply manually.
func (inv *Invoker) Unattended() bool {
	return unattendedAvailable
}

// Install launches the installer at artifactPath in unattended mode. The
// installer stops the running copy, replaces it and starts the new
// version; failure to launch leaves the current installation untouched.
func (inv *Invoker) Install(ctx context.Context, artifactPath string) (_err error) {
	logger.Debugf(ctx, "Install(ctx, '%s')", artifactPath)
	defer func() { logger.Debugf(ctx, "/Install(ctx, '%s'): %v", artifactPath, _err) }()

	if !inv.Unattended() {
		return ErrUnattendedUnsupported{ArtifactPath: artifactPath}
	}

	if err := inv.Runner.StartDetached(ctx, artifactPath, silentInstallArgs...); err != nil {
		return ErrInstallLaunchFailed{ArtifactPath: artifactPath, Err: err}
	}
	logger.Infof(ctx, "started the installer '%s'", artifactPath)
	return nil
}
