//go:build !linux

package daemonrun

import (
	"context"
	"os"
	"time"
)

const parentPollInterval = time.Second

// exitWithParent cancels ctx once the process is reparented.
func exitWithParent(ctx context.Context, cancel context.CancelFunc) error {
	parent := os.Getppid()
	go func() {
		ticker := time.NewTicker(parentPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if os.Getppid() != parent {
					cancel()
					return
				}
			}
		}
	}()
	return nil
}
