package supervisor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/supervisor"
)

type fakeProcess struct {
	pid  int
	exit chan error
}

func (p *fakeProcess) PID() int    { return p.pid }
func (p *fakeProcess) Wait() error { return <-p.exit }

type fakeLauncher struct {
	mu       sync.Mutex
	nextPID  int
	launches map[int]int
	procs    map[int]*fakeProcess
	failures int
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{nextPID: 100, launches: map[int]int{}, procs: map[int]*fakeProcess{}}
}

func (l *fakeLauncher) Launch(ctx context.Context, slot int) (supervisor.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures > 0 {
		l.failures--
		return nil, errors.New("exec: no such file")
	}
	l.nextPID++
	proc := &fakeProcess{pid: l.nextPID, exit: make(chan error, 1)}
	go func() {
		<-ctx.Done()
		select {
		case proc.exit <- ctx.Err():
		default:
		}
	}()
	l.launches[slot]++
	l.procs[slot] = proc
	return proc, nil
}

func (l *fakeLauncher) count(slot int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches[slot]
}

func (l *fakeLauncher) kill(slot int, err error) {
	l.mu.Lock()
	proc := l.procs[slot]
	l.mu.Unlock()
	proc.exit <- err
}

type countingObserver struct {
	mu    sync.Mutex
	slots []int
}

func (o *countingObserver) WorkerRestarted(slot int) {
	o.mu.Lock()
	o.slots = append(o.slots, slot)
	o.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func runSupervisor(t *testing.T, sup *supervisor.Supervisor) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled from Run, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("supervisor did not stop")
		}
	})
	return cancel
}

func TestRunStartsOneWorkerPerSlot(t *testing.T) {
	launcher := newFakeLauncher()
	sup, err := supervisor.New(supervisor.Options{Launcher: launcher, Size: 3, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runSupervisor(t, sup)

	waitFor(t, "three workers", func() bool {
		return launcher.count(0) == 1 && launcher.count(1) == 1 && launcher.count(2) == 1
	})
	for _, w := range sup.Workers() {
		if w.PID == 0 {
			waitFor(t, "pid recorded", func() bool { return sup.Workers()[w.Slot].PID != 0 })
		}
	}
	if sup.Restarts() != 0 {
		t.Fatalf("expected no restarts, got %d", sup.Restarts())
	}
}

func TestExitedWorkerIsReplacedExactlyOnce(t *testing.T) {
	launcher := newFakeLauncher()
	observer := &countingObserver{}
	sup, err := supervisor.New(supervisor.Options{Launcher: launcher, Size: 2, Observer: observer})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runSupervisor(t, sup)
	waitFor(t, "workers", func() bool { return launcher.count(0) == 1 && launcher.count(1) == 1 })

	launcher.kill(1, errors.New("signal: killed"))
	waitFor(t, "replacement", func() bool { return launcher.count(1) == 2 })
	time.Sleep(50 * time.Millisecond)

	if launcher.count(1) != 2 || launcher.count(0) != 1 {
		t.Fatalf("unexpected launch counts: slot0=%d slot1=%d", launcher.count(0), launcher.count(1))
	}
	waitFor(t, "restart counted", func() bool { return sup.Restarts() == 1 })
	workers := sup.Workers()
	if workers[1].Restarts != 1 || workers[1].LastExit != "signal: killed" {
		t.Fatalf("unexpected slot state: %+v", workers[1])
	}
	observer.mu.Lock()
	defer observer.mu.Unlock()
	if len(observer.slots) != 1 || observer.slots[0] != 1 {
		t.Fatalf("unexpected observer calls: %v", observer.slots)
	}
}

func TestCleanExitIsAlsoReplaced(t *testing.T) {
	launcher := newFakeLauncher()
	sup, err := supervisor.New(supervisor.Options{Launcher: launcher, Size: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runSupervisor(t, sup)
	waitFor(t, "worker", func() bool { return launcher.count(0) == 1 })

	for i := 2; i <= 4; i++ {
		launcher.kill(0, nil)
		want := i
		waitFor(t, "replacement", func() bool { return launcher.count(0) == want })
	}
	waitFor(t, "restarts", func() bool { return sup.Restarts() == 3 })
}

func TestLaunchFailureIsRetried(t *testing.T) {
	launcher := newFakeLauncher()
	launcher.failures = 2
	sup, err := supervisor.New(supervisor.Options{Launcher: launcher, Size: 1, SpawnRetry: time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runSupervisor(t, sup)
	waitFor(t, "eventual launch", func() bool { return launcher.count(0) == 1 })
	if sup.Restarts() != 0 {
		t.Fatalf("launch retries must not count as restarts, got %d", sup.Restarts())
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := supervisor.New(supervisor.Options{Size: 1}); err == nil {
		t.Fatal("expected error without launcher")
	}
	if _, err := supervisor.New(supervisor.Options{Launcher: newFakeLauncher()}); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestExecLauncherRespawnsRealProcess(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "launches")
	script := filepath.Join(dir, "worker.sh")
	body := "#!/bin/sh\necho \"$" + supervisor.SlotEnv + "\" >> " + marker + "\nexit 3\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	launcher := &supervisor.ExecLauncher{Executable: script, KillGrace: time.Second}
	sup, err := supervisor.New(supervisor.Options{Launcher: launcher, Size: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cancel := runSupervisor(t, sup)

	waitFor(t, "several respawns", func() bool {
		data, _ := os.ReadFile(marker)
		return strings.Count(string(data), "0\n") >= 3
	})
	cancel()
	waitFor(t, "restart count", func() bool { return sup.Restarts() >= 2 })
	if exit := sup.Workers()[0].LastExit; exit != "" && !strings.Contains(exit, "exit status") && !strings.Contains(exit, "signal") {
		t.Fatalf("unexpected last exit: %q", exit)
	}
}
