package daemonrun_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/daemonrun"
	"github.com/ritchie-gr8/video-editor/internal/dispatch"
	"github.com/ritchie-gr8/video-editor/internal/ipc"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/testsupport"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

const ffmpegStub = `for last; do :; done
printf 'resized' > "$last"
`

func dialPrimary(t *testing.T, socket string) *ipc.Client {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socket)
		if err == nil {
			t.Cleanup(func() { client.Close() })
			return client
		}
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("primary socket %s never came up", socket)
	return nil
}

func waitForFlag(t *testing.T, s store.Store, id, key string, want bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := store.Get(context.Background(), s, id)
		if err == nil {
			if state, ok := rec.Resizes[key]; ok && state.Processing == want {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("resize %s on %s never reached processing=%v", key, id, want)
}

func TestInlinePrimaryRecoversAndServesIPC(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubScript("ffmpeg", ffmpegStub),
		testsupport.WithStubbedBinaries("ffprobe"),
	)
	seedStore := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedVideo(t, cfg, seedStore, "vid00001", map[string]bool{"640x360": true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg, daemonrun.Options{Inline: true})
	}()

	client := dialPrimary(t, cfg.SocketPath())
	waitForFlag(t, seedStore, "vid00001", "640x360", false)
	layout := video.Layout{Root: cfg.Paths.StorageDir}
	if _, err := os.Stat(layout.Resized("vid00001", 640, 360, "mp4")); err != nil {
		t.Fatalf("recovered resize output missing: %v", err)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Inline || status.PID != os.Getpid() || status.Dispatcher.Recovered != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if _, err := os.Stat(cfg.PIDPath()); err != nil {
		t.Fatalf("pid file missing while running: %v", err)
	}

	// A second primary on the same data dir cannot take the dispatcher lock.
	err = daemonrun.Run(context.Background(), cfg, daemonrun.Options{Inline: true, SocketPath: cfg.SocketPath() + ".2"})
	if !errors.Is(err, dispatch.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	// Submission over IPC runs after persisting the flag.
	if err := store.Mutate(context.Background(), seedStore, func(s store.Store) error {
		rec, _ := s.FindVideo("vid00001")
		rec.MarkResizing(320, 180)
		return nil
	}); err != nil {
		t.Fatalf("mark resizing: %v", err)
	}
	if _, err := client.Submit(ipc.NewResizeMessage(jobqueue.NewResize("vid00001", 320, 180))); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitForFlag(t, seedStore, "vid00001", "320x180", false)

	if _, err := client.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("primary did not stop")
	}
	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed, stat err=%v", err)
	}
}
