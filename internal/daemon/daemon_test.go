package daemon_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/daemon"
	"github.com/ritchie-gr8/video-editor/internal/dispatch"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/supervisor"
	"github.com/ritchie-gr8/video-editor/internal/testsupport"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

type copyRunner struct{}

func (copyRunner) Resize(_ context.Context, _, dst string, _, _ int) error {
	return os.WriteFile(dst, []byte("resized"), 0o644)
}

type fakePool struct {
	ran atomic.Bool
}

func (p *fakePool) Run(ctx context.Context) error {
	p.ran.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func (p *fakePool) Workers() []supervisor.Worker {
	return []supervisor.Worker{{Slot: 0, PID: 1234, Restarts: 2}}
}

func (p *fakePool) Restarts() uint64 { return 2 }

func newDaemon(t *testing.T) (*daemon.Daemon, *fakePool) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	s := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedVideo(t, cfg, s, "aaaaaaaa", map[string]bool{"320x240": true})

	d, err := dispatch.New(context.Background(), dispatch.Options{
		LockPath: cfg.LockPath(),
		Store:    s,
		Runner:   copyRunner{},
		Layout:   video.Layout{Root: cfg.Paths.StorageDir},
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("dispatch.New: %v", err)
	}
	dmn, err := daemon.New(cfg, s, d, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	pool := &fakePool{}
	dmn.AttachWorkers(pool)
	t.Cleanup(func() { _ = dmn.Close() })
	return dmn, pool
}

func TestDaemonRunStop(t *testing.T) {
	dmn, pool := newDaemon(t)

	done := make(chan error, 1)
	go func() { done <- dmn.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		status := dmn.Status(context.Background())
		if status.Running && status.Dispatcher.Succeeded == 1 && pool.ran.Load() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("daemon never processed the recovered job: %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	dmn.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error after Stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if dmn.Status(context.Background()).Running {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestDaemonStatusReportsWorkersAndDependencies(t *testing.T) {
	dmn, _ := newDaemon(t)

	status := dmn.Status(context.Background())
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid %d", status.PID)
	}
	if len(status.Workers) != 1 || status.Workers[0].PID != 1234 || status.WorkerRestarts != 2 {
		t.Fatalf("unexpected workers: %+v", status.Workers)
	}
	if len(status.Dependencies) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe dependencies, got %+v", status.Dependencies)
	}
	for _, dep := range status.Dependencies {
		if !dep.Available {
			t.Fatalf("expected stubbed %s to be available: %+v", dep.Name, dep)
		}
	}
	if status.Dispatcher.Recovered != 1 || len(status.Dispatcher.Pending) != 1 {
		t.Fatalf("expected recovered job pending before Run: %+v", status.Dispatcher)
	}
}

func TestDaemonSubmitValidates(t *testing.T) {
	dmn, _ := newDaemon(t)

	if err := dmn.Submit(jobqueue.NewResize("aaaaaaaa", 0, 10)); err == nil {
		t.Fatal("expected validation error for zero width")
	}
	if err := dmn.Submit(jobqueue.NewResize("aaaaaaaa", 640, 360)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := dmn.Status(context.Background()).Dispatcher.Submitted; got != 1 {
		t.Fatalf("expected one submission, got %d", got)
	}
}

func TestDaemonRunTwiceFails(t *testing.T) {
	dmn, _ := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dmn.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !dmn.Status(ctx).Running {
		if time.Now().After(deadline) {
			t.Fatal("daemon never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := dmn.Run(ctx); err == nil {
		t.Fatal("expected second Run to fail")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
