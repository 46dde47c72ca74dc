package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"
)

// SlotEnv carries the worker's slot number into the child environment.
const SlotEnv = "VIDEO_EDITOR_WORKER_SLOT"

// ExecLauncher starts workers by executing a binary.
type ExecLauncher struct {
	Executable string
	Args       []string
	Env        []string
	Stdout     io.Writer
	Stderr     io.Writer
	// KillGrace bounds how long a cancelled worker may take to exit after
	// SIGTERM before it is killed.
	KillGrace time.Duration
}

// SelfLauncher re-executes the running binary with args.
func SelfLauncher(args ...string) (*ExecLauncher, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	return &ExecLauncher{
		Executable: self,
		Args:       args,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		KillGrace:  5 * time.Second,
	}, nil
}

// Launch starts one worker process.
func (l *ExecLauncher) Launch(ctx context.Context, slot int) (Process, error) {
	cmd := exec.CommandContext(ctx, l.Executable, l.Args...) //nolint:gosec
	cmd.Env = append(append(os.Environ(), l.Env...), SlotEnv+"="+strconv.Itoa(slot))
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = l.KillGrace
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %d: %w", slot, err)
	}
	return execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p execProcess) Wait() error {
	return p.cmd.Wait()
}
