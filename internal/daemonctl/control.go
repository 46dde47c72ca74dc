// Package daemonctl starts, stops and inspects the primary from the CLI.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/api"
	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/deps"
	"github.com/ritchie-gr8/video-editor/internal/ipc"
)

// ErrDaemonNotRunning indicates the primary's IPC socket is unavailable.
var ErrDaemonNotRunning = errors.New("video-editor is not running")

// LaunchOptions controls how the detached primary is started.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
	Inline     bool
}

// StartState describes the outcome of EnsureStarted.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures primary start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// StopResult captures primary stop outcome.
type StopResult struct {
	StopAcknowledged bool
	Signalled        bool
	PID              int
}

// Launch starts a detached primary process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"serve"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if opts.Inline {
		args = append(args, "--inline")
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch primary: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for the IPC socket and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for primary")
	}
	return nil, fmt.Errorf("primary failed to start: %w", lastErr)
}

// EnsureStarted launches the primary unless it is already answering IPC.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if client, err := ipc.Dial(socketPath); err == nil {
		defer client.Close()
		result := StartResult{State: StartStateAlreadyRunning}
		if status, statusErr := client.Status(); statusErr == nil {
			result.PID = status.PID
		}
		return result, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	client, err := WaitForClient(socketPath, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	defer client.Close()
	result := StartResult{State: StartStateStarted}
	if status, statusErr := client.Status(); statusErr == nil {
		result.PID = status.PID
	}
	return result, nil
}

// WaitForShutdown waits until the IPC socket stops answering.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return nil
		}
		_ = client.Close()
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("primary did not stop within %s", timeout)
}

// Stop asks the primary to shut down over IPC. When the socket is gone but a
// PID file remains, the recorded process is sent SIGTERM instead.
func Stop(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if !isDaemonUnavailable(err) {
			return StopResult{}, err
		}
		pid, pidErr := readPIDFile(cfg.PIDPath())
		if pidErr != nil || pid <= 0 {
			return StopResult{}, ErrDaemonNotRunning
		}
		if err := TerminateProcess(pid); err != nil {
			if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
				_ = os.Remove(cfg.PIDPath())
				return StopResult{}, ErrDaemonNotRunning
			}
			return StopResult{}, err
		}
		return StopResult{Signalled: true, PID: pid}, nil
	}

	result := StopResult{}
	if status, statusErr := client.Status(); statusErr == nil {
		result.PID = status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return result, err
	}
	result.StopAcknowledged = resp.Stopped
	if err := WaitForShutdown(socketPath, gracePeriod); err != nil {
		if result.PID <= 0 {
			return result, err
		}
		if termErr := TerminateProcess(result.PID); termErr != nil {
			return result, fmt.Errorf("%w; SIGTERM failed: %v", err, termErr)
		}
		result.Signalled = true
	}
	return result, nil
}

// TerminateProcess sends SIGTERM to pid.
func TerminateProcess(pid int) error {
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("locate primary process %d: %w", pid, err)
	}
	return proc.Signal(syscall.SIGTERM)
}

// Status returns the running primary's status, or an offline status built
// from configuration when nothing answers on the socket.
func Status(socketPath string, cfg *config.Config) (*ipc.StatusResponse, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		return client.Status()
	}
	return &ipc.StatusResponse{
		StorePath:    cfg.StorePath(),
		LockPath:     cfg.LockPath(),
		SocketPath:   socketPath,
		Dispatcher:   api.DispatcherStatus{Pending: []api.Job{}},
		Workers:      []api.WorkerStatus{},
		Dependencies: api.FromDeps(deps.CheckMedia(cfg)),
	}, nil
}

// StatusLine is one labelled row of `status` output.
type StatusLine struct {
	Label    string
	Severity string
	Detail   string
}

// BuildStatusLines summarizes a status response for display.
func BuildStatusLines(status *ipc.StatusResponse) []StatusLine {
	if status == nil || !status.Running {
		return []StatusLine{{Label: "Video Editor", Severity: "warn", Detail: "Not running (run `video-editor start`)"}}
	}
	mode := fmt.Sprintf("%d workers", len(status.Workers))
	if status.Inline {
		mode = "inline HTTP"
	}
	lines := []StatusLine{
		{Label: "Video Editor", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d, %s)", status.PID, mode)},
	}

	disp := status.Dispatcher
	switch {
	case disp.Current != nil:
		lines = append(lines, StatusLine{Label: "Dispatcher", Severity: "ok",
			Detail: fmt.Sprintf("Resizing %s to %s, %d pending", disp.Current.VideoID, disp.Current.Key, len(disp.Pending))})
	case disp.Running:
		lines = append(lines, StatusLine{Label: "Dispatcher", Severity: "ok", Detail: "Idle"})
	default:
		lines = append(lines, StatusLine{Label: "Dispatcher", Severity: "error", Detail: "Event loop not running"})
	}

	jobs := StatusLine{Label: "Jobs", Severity: "ok",
		Detail: fmt.Sprintf("%d submitted, %d succeeded, %d failed, %d recovered", disp.Submitted, disp.Succeeded, disp.Failed, disp.Recovered)}
	if disp.Failed > 0 {
		jobs.Severity = "warn"
	}
	lines = append(lines, jobs)
	if disp.LastError != "" {
		lines = append(lines, StatusLine{Label: "Last Error", Severity: "warn", Detail: disp.LastError})
	}
	if !status.Inline {
		workers := StatusLine{Label: "Workers", Severity: "ok", Detail: fmt.Sprintf("%d restarts", status.WorkerRestarts)}
		if status.WorkerRestarts > 0 {
			workers.Severity = "warn"
		}
		lines = append(lines, workers)
	}
	return lines
}

// BuildDependencyLines reports each media tool.
func BuildDependencyLines(status *ipc.StatusResponse) []StatusLine {
	if status == nil {
		return nil
	}
	lines := make([]StatusLine, 0, len(status.Dependencies))
	for _, dep := range status.Dependencies {
		line := StatusLine{Label: dep.Name, Severity: "ok", Detail: dep.Command}
		if !dep.Available {
			line.Severity = "error"
			if dep.Optional {
				line.Severity = "warn"
			}
			line.Detail = dep.Detail
		}
		lines = append(lines, line)
	}
	return lines
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
