//go:build !windows
// +build !windows

package installer

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// There is no bundled installer mechanism outside of Windows: the update
// flow stops at ReadyToInstall and the user applies the artifact manually.
const unattendedAvailable = false

var silentInstallArgs []string

type execRunner struct{}

func (execRunner) StartDetached(ctx context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	// a new session, so the child survives our exit
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start '%s': %w", name, err)
	}
	if err := cmd.Process.Release(); err != nil {
		logger.Errorf(ctx, "unable to release the process of '%s': %v", name, err)
	}
	return nil
}
