//go:build linux

package daemonrun

import (
	"context"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// exitWithParent asks the kernel to SIGTERM this process when the primary
// dies. The signal lands on the NotifyContext already installed by the caller.
func exitWithParent(_ context.Context, cancel context.CancelFunc) error {
	if err := unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(syscall.SIGTERM), 0, 0, 0); err != nil {
		return err
	}
	// The primary may have died before prctl ran.
	if os.Getppid() == 1 {
		cancel()
	}
	return nil
}
