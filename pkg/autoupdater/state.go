package autoupdater

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/BoboTiG/trafic/pkg/releases"
)

// UpdateState is the orchestrator's current status. Exactly one state
// exists per running application; it is mutated only by the orchestrator
// and observed through SubscribeToStateChanges/GetState.
type UpdateState interface {
	fmt.Stringer
	isUpdateState()
}

type StateIdle struct{}

func (StateIdle) isUpdateState() {}
func (StateIdle) String() string { return "idle" }

type StateChecking struct{}

func (StateChecking) isUpdateState() {}
func (StateChecking) String() string { return "checking for updates" }

type StateNoUpdateAvailable struct{}

func (StateNoUpdateAvailable) isUpdateState() {}
func (StateNoUpdateAvailable) String() string { return "already up to date" }

type StateUpdateAvailable struct {
	Release releases.Release
}

func (StateUpdateAvailable) isUpdateState() {}
func (s StateUpdateAvailable) String() string {
	return fmt.Sprintf("version %s is available", s.Release.Version)
}

type StateDownloading struct {
	Release  releases.Release
	Received int64
	Total    int64
}

func (StateDownloading) isUpdateState() {}
func (s StateDownloading) String() string {
	if s.Total <= 0 {
		return fmt.Sprintf("downloading %s: %s", s.Release.Version, humanize.IBytes(uint64(s.Received)))
	}
	return fmt.Sprintf(
		"downloading %s: %s of %s",
		s.Release.Version,
		humanize.IBytes(uint64(s.Received)),
		humanize.IBytes(uint64(s.Total)),
	)
}

type StateReadyToInstall struct {
	Release   releases.Release
	LocalPath string
}

func (StateReadyToInstall) isUpdateState() {}
func (s StateReadyToInstall) String() string {
	return fmt.Sprintf("version %s is downloaded to '%s'", s.Release.Version, s.LocalPath)
}

type StateInstalling struct {
	Release releases.Release
}

func (StateInstalling) isUpdateState() {}
func (s StateInstalling) String() string {
	return fmt.Sprintf("installing version %s", s.Release.Version)
}

type StateFailed struct {
	Reason Reason
	Err    error
}

func (StateFailed) isUpdateState() {}
func (s StateFailed) String() string {
	return fmt.Sprintf("update failed (%s): %v", s.Reason, s.Err)
}
