package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/api"
	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/deps"
	"github.com/ritchie-gr8/video-editor/internal/dispatch"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/supervisor"
)

// WorkerPool is the supervised set of HTTP worker processes.
type WorkerPool interface {
	Run(ctx context.Context) error
	Workers() []supervisor.Worker
	Restarts() uint64
}

// Daemon is the primary process aggregate.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      store.Store
	dispatcher *dispatch.Dispatcher
	pool       WorkerPool
	inline     bool

	running   atomic.Bool
	startedAt time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New constructs a daemon around an already constructed dispatcher.
func New(cfg *config.Config, s store.Store, d *dispatch.Dispatcher, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || s == nil || d == nil {
		return nil, errors.New("daemon requires config, store, and dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      s,
		dispatcher: d,
	}, nil
}

// AttachWorkers sets the worker pool Run supervises.
func (d *Daemon) AttachWorkers(pool WorkerPool) {
	d.pool = pool
}

// SetInline marks the primary as serving HTTP itself.
func (d *Daemon) SetInline(inline bool) {
	d.inline = inline
}

// Run drives the dispatcher and the worker pool until ctx is cancelled or
// Stop is called. The dispatcher starts first so recovered jobs are already
// running before any worker accepts requests.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.startedAt = time.Now()
	d.mu.Unlock()
	defer cancel()

	d.logger.Info("video-editor primary started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.Int(logging.FieldPID, os.Getpid()),
		logging.Bool("inline", d.inline),
		logging.String("lock", d.cfg.LockPath()),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := d.dispatcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(d.logger, "dispatcher stopped unexpectedly", "dispatcher_failed", logging.Error(err))
		}
		cancel()
	}()
	if d.pool != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.pool.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logging.ErrorWithContext(d.logger, "worker pool stopped unexpectedly", "supervisor_failed", logging.Error(err))
			}
		}()
	}

	<-runCtx.Done()
	wg.Wait()
	d.logger.Info("video-editor primary stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Stop cancels Run.
func (d *Daemon) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Submit validates a job and hands it to the dispatcher.
func (d *Daemon) Submit(job jobqueue.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	d.dispatcher.Submit(job)
	return nil
}

// Status reports the primary's runtime state.
func (d *Daemon) Status(_ context.Context) api.DaemonStatus {
	d.mu.Lock()
	started := d.startedAt
	d.mu.Unlock()

	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Inline:       d.inline,
		StorePath:    d.store.Path(),
		LockPath:     d.cfg.LockPath(),
		SocketPath:   d.cfg.SocketPath(),
		Dispatcher:   api.FromSnapshot(d.dispatcher.Snapshot()),
		Workers:      []api.WorkerStatus{},
		Dependencies: api.FromDeps(deps.CheckMedia(d.cfg)),
	}
	if !started.IsZero() {
		status.StartedAt = started.UTC().Format(time.RFC3339)
	}
	if d.pool != nil {
		status.Workers = api.FromWorkers(d.pool.Workers())
		status.WorkerRestarts = d.pool.Restarts()
	}
	return status
}

// Close releases the dispatcher lock and the store.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if err := d.dispatcher.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
