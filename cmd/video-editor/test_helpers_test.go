package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/ritchie-gr8/video-editor/internal/api"
	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/ipc"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/testsupport"
)

// recordingBackend stands in for the primary behind the IPC socket.
type recordingBackend struct {
	mu     sync.Mutex
	jobs   []jobqueue.Job
	status api.DaemonStatus
}

func (b *recordingBackend) Submit(job jobqueue.Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append(b.jobs, job)
	return nil
}

func (b *recordingBackend) Status(context.Context) api.DaemonStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *recordingBackend) Stop() {}

func (b *recordingBackend) submitted() []jobqueue.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]jobqueue.Job(nil), b.jobs...)
}

type cliTestEnv struct {
	cfg        *config.Config
	store      store.Store
	configPath string
	backend    *recordingBackend
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: configPath,
	}
}

// startPrimary serves the IPC socket with a recording backend.
func (e *cliTestEnv) startPrimary(t *testing.T, status api.DaemonStatus) *recordingBackend {
	t.Helper()

	backend := &recordingBackend{status: status}
	srv, err := ipc.NewServer(context.Background(), e.cfg.SocketPath(), backend, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() { srv.Close() })
	e.backend = backend
	return backend
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := runCLI(t, args, e.cfg.SocketPath(), e.configPath)
	return stdout, err
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
