package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/logging"
)

const minSpawnRetry = 100 * time.Millisecond

// Process is a running worker.
type Process interface {
	PID() int
	Wait() error
}

// Launcher starts the worker for a slot. Implementations should tie the
// process lifetime to ctx.
type Launcher interface {
	Launch(ctx context.Context, slot int) (Process, error)
}

// Observer is notified whenever an exited worker is replaced.
type Observer interface {
	WorkerRestarted(slot int)
}

// Options configures a Supervisor.
type Options struct {
	Launcher   Launcher
	Size       int
	SpawnRetry time.Duration
	Logger     *slog.Logger
	Observer   Observer
}

// Worker describes the process currently occupying a slot.
type Worker struct {
	Slot      int       `json:"slot"`
	PID       int       `json:"pid"`
	Restarts  uint64    `json:"restarts"`
	StartedAt time.Time `json:"started_at"`
	LastExit  string    `json:"last_exit,omitempty"`
}

// Supervisor runs Size worker slots.
type Supervisor struct {
	launcher   Launcher
	size       int
	spawnRetry time.Duration
	logger     *slog.Logger
	observer   Observer

	mu       sync.Mutex
	workers  []Worker
	restarts atomic.Uint64
}

// New constructs a Supervisor. Size must be positive.
func New(opts Options) (*Supervisor, error) {
	if opts.Launcher == nil {
		return nil, errors.New("supervisor: launcher is required")
	}
	if opts.Size <= 0 {
		return nil, errors.New("supervisor: size must be positive")
	}
	retry := opts.SpawnRetry
	if retry < minSpawnRetry {
		retry = minSpawnRetry
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := make([]Worker, opts.Size)
	for i := range workers {
		workers[i].Slot = i
	}
	return &Supervisor{
		launcher:   opts.Launcher,
		size:       opts.Size,
		spawnRetry: retry,
		logger:     logging.NewComponentLogger(logger, "supervisor"),
		observer:   opts.Observer,
		workers:    workers,
	}, nil
}

// Run starts every slot and blocks until ctx is cancelled and all slot loops
// have returned.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("starting workers",
		logging.String(logging.FieldEventType, "supervisor_started"),
		logging.Int("workers", s.size),
	)
	var wg sync.WaitGroup
	for slot := 0; slot < s.size; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			s.runSlot(ctx, slot)
		}(slot)
	}
	wg.Wait()
	s.logger.Info("workers stopped",
		logging.String(logging.FieldEventType, "supervisor_stopped"),
		logging.Int64("restarts", int64(s.restarts.Load())),
	)
	return ctx.Err()
}

// Workers returns the current slot table.
func (s *Supervisor) Workers() []Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Worker(nil), s.workers...)
}

// Restarts returns how many exited workers have been replaced.
func (s *Supervisor) Restarts() uint64 {
	return s.restarts.Load()
}

func (s *Supervisor) runSlot(ctx context.Context, slot int) {
	logger := s.logger.With(logging.Int(logging.FieldWorkerSlot, slot))
	replacing := false
	for ctx.Err() == nil {
		proc, err := s.launcher.Launch(ctx, slot)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.WarnWithContext(logger, "worker launch failed", "worker_launch_failed",
				logging.Error(err),
				logging.Duration("retry_in", s.spawnRetry),
				logging.String(logging.FieldImpact, "one fewer HTTP worker until the launch succeeds"),
				logging.String(logging.FieldErrorHint, "check the executable path and permissions"),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.spawnRetry):
			}
			continue
		}

		s.started(slot, proc.PID(), replacing)
		if replacing {
			s.restarts.Add(1)
			if s.observer != nil {
				s.observer.WorkerRestarted(slot)
			}
		}
		logger.Debug("worker started",
			logging.String(logging.FieldEventType, "worker_started"),
			logging.Int(logging.FieldPID, proc.PID()),
		)

		waitErr := proc.Wait()
		exit := describeExit(waitErr)
		s.exited(slot, exit)
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(logger, "worker exited; restarting", "worker_exited",
			logging.Int(logging.FieldPID, proc.PID()),
			logging.String("exit", exit),
			logging.String(logging.FieldImpact, "in-flight HTTP requests on this worker were dropped"),
			logging.String(logging.FieldErrorHint, "check the worker log lines preceding the exit"),
		)
		replacing = true
	}
}

func (s *Supervisor) started(slot, pid int, replacing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &s.workers[slot]
	w.PID = pid
	w.StartedAt = time.Now()
	if replacing {
		w.Restarts++
	}
}

func (s *Supervisor) exited(slot int, exit string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[slot].PID = 0
	s.workers[slot].LastExit = exit
}

func describeExit(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}
