//go:build windows
// +build windows

package installer

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/facebookincubator/go-belt/tool/logger"
)

const unattendedAvailable = true

// The distribution artifact is an Inno Setup installer; it stops the
// running application, installs the new version and starts it again.
var silentInstallArgs = []string{"/silent", "/norestart"}

const (
	createNewProcessGroup = 0x00000200
	detachedProcess       = 0x00000008
)

type execRunner struct{}

func (execRunner) StartDetached(ctx context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: createNewProcessGroup | detachedProcess,
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start '%s': %w", name, err)
	}
	if err := cmd.Process.Release(); err != nil {
		logger.Errorf(ctx, "unable to release the process of '%s': %v", name, err)
	}
	return nil
}
