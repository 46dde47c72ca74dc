package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/recovery"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

var (
	// ErrAlreadyRunning reports that another Dispatcher holds the lock.
	ErrAlreadyRunning = errors.New("dispatcher already running")
	// ErrStarted reports a second call to Run.
	ErrStarted = errors.New("dispatcher event loop already started")
)

// Transcoder performs the resize itself.
type Transcoder interface {
	Resize(ctx context.Context, src, dst string, width, height int) error
}

// Observer receives job lifecycle notifications. Calls come from the event
// loop and must not block.
type Observer interface {
	JobSubmitted(job jobqueue.Job)
	JobStarted(job jobqueue.Job)
	JobFinished(job jobqueue.Job, elapsed time.Duration, err error)
	QueueDepth(n int)
}

// Options configures a Dispatcher.
type Options struct {
	LockPath string
	Store    store.Store
	Runner   Transcoder
	Layout   video.Layout
	Logger   *slog.Logger
	Observer Observer
}

// Snapshot is a point-in-time view of the dispatcher.
type Snapshot struct {
	Running   bool
	Current   *jobqueue.Job
	Pending   []jobqueue.Job
	Recovered int
	Submitted uint64
	Succeeded uint64
	Failed    uint64
	LastError string
}

type loopState int

const (
	stateIdle loopState = iota
	stateRunning
	stateStopped
)

type result struct {
	job     jobqueue.Job
	elapsed time.Duration
	err     error
}

// Dispatcher serializes resize execution.
type Dispatcher struct {
	lock     *flock.Flock
	store    store.Store
	runner   Transcoder
	layout   video.Layout
	logger   *slog.Logger
	observer Observer

	queue *jobqueue.Queue
	wake  chan struct{}
	done  chan result

	mu        sync.Mutex
	state     loopState
	inbox     []jobqueue.Job
	published Snapshot
	closed    bool
}

// New acquires the dispatcher lock, recovers unfinished resizes from the
// store and queues them ahead of any later submission.
func New(ctx context.Context, opts Options) (*Dispatcher, error) {
	if opts.Store == nil {
		return nil, errors.New("dispatch: store is required")
	}
	if opts.Runner == nil {
		return nil, errors.New("dispatch: runner is required")
	}
	if opts.LockPath == "" {
		return nil, errors.New("dispatch: lock path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	lock := flock.New(opts.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire dispatcher lock: %w", err)
	}
	if !locked {
		_ = lock.Close()
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, opts.LockPath)
	}

	d := &Dispatcher{
		lock:     lock,
		store:    opts.Store,
		runner:   opts.Runner,
		layout:   opts.Layout,
		logger:   logging.NewComponentLogger(logger, "dispatcher"),
		observer: observer,
		queue:    jobqueue.New(),
		wake:     make(chan struct{}, 1),
		done:     make(chan result, 1),
	}

	recovered, err := recovery.Scan(ctx, opts.Store, logger)
	if err != nil {
		_ = lock.Unlock()
		_ = lock.Close()
		return nil, fmt.Errorf("recover jobs: %w", err)
	}
	for _, job := range recovered {
		d.queue.Enqueue(job)
	}
	d.published.Recovered = len(recovered)
	d.published.Pending = d.queue.Pending()
	observer.QueueDepth(d.queue.Len())
	return d, nil
}

// Submit hands a job to the event loop. It never blocks. Jobs submitted
// before Run starts are queued behind recovered jobs; jobs submitted after
// Run has returned are dropped and logged.
func (d *Dispatcher) Submit(job jobqueue.Job) {
	d.mu.Lock()
	if d.state == stateStopped {
		d.mu.Unlock()
		logging.WarnWithContext(d.logger, "dropping job submitted after shutdown", "job_dropped",
			logging.String(logging.FieldVideoID, job.VideoID),
			logging.String(logging.FieldJobKey, job.Key()),
			logging.String(logging.FieldImpact, "resize stays flagged processing until the next start"),
			logging.String(logging.FieldErrorHint, "restart the service to recover the job"),
		)
		return
	}
	d.inbox = append(d.inbox, job)
	d.published.Submitted++
	d.mu.Unlock()

	d.observer.JobSubmitted(job)
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Snapshot returns the state last published by the event loop.
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.published
	snap.Running = d.state == stateRunning
	if d.published.Current != nil {
		current := *d.published.Current
		snap.Current = &current
	}
	snap.Pending = append([]jobqueue.Job(nil), d.published.Pending...)
	snap.Pending = append(snap.Pending, d.inbox...)
	return snap
}

// Run drives the event loop until ctx is cancelled. Cancellation also
// cancels the in-flight transcode; Run waits for it to reach a terminal
// state before returning ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.state != stateIdle {
		d.mu.Unlock()
		return ErrStarted
	}
	d.state = stateRunning
	d.mu.Unlock()

	d.logger.Info("dispatcher started",
		logging.String(logging.FieldEventType, "dispatcher_started"),
		logging.Int("pending", d.queue.Len()),
	)

	d.drainInbox()
	d.advance(ctx)
	for {
		select {
		case <-ctx.Done():
			if d.queue.Busy() {
				d.finish(<-d.done)
			}
			d.drainInbox()
			d.mu.Lock()
			d.state = stateStopped
			d.mu.Unlock()
			d.publish()
			d.logger.Info("dispatcher stopped",
				logging.String(logging.FieldEventType, "dispatcher_stopped"),
				logging.Int("abandoned", d.queue.Len()),
			)
			return ctx.Err()
		case <-d.wake:
			d.drainInbox()
			d.advance(ctx)
		case res := <-d.done:
			d.finish(res)
			d.advance(ctx)
		}
	}
}

// Close releases the dispatcher lock. It is safe to call more than once.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.lock.Unlock(); err != nil {
		_ = d.lock.Close()
		return fmt.Errorf("release dispatcher lock: %w", err)
	}
	return d.lock.Close()
}

func (d *Dispatcher) drainInbox() {
	d.mu.Lock()
	inbox := d.inbox
	d.inbox = nil
	d.mu.Unlock()
	for _, job := range inbox {
		d.queue.Enqueue(job)
	}
	if len(inbox) > 0 {
		d.publish()
	}
}

// advance starts the head of the queue when the slot is free.
func (d *Dispatcher) advance(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	job, ok := d.queue.Next()
	if !ok {
		return
	}
	d.observer.JobStarted(job)
	d.publish()
	go func() {
		d.done <- d.execute(ctx, job)
	}()
}

func (d *Dispatcher) finish(res result) {
	d.queue.Clear()

	d.mu.Lock()
	if res.err != nil {
		d.published.Failed++
		d.published.LastError = res.err.Error()
	} else {
		d.published.Succeeded++
	}
	d.mu.Unlock()

	d.observer.JobFinished(res.job, res.elapsed, res.err)
	d.publish()
}

func (d *Dispatcher) publish() {
	current, busy := d.queue.Current()
	pending := d.queue.Pending()

	d.mu.Lock()
	if busy {
		d.published.Current = &current
	} else {
		d.published.Current = nil
	}
	d.published.Pending = pending
	d.mu.Unlock()

	d.observer.QueueDepth(len(pending))
}

type nopObserver struct{}

func (nopObserver) JobSubmitted(jobqueue.Job)                      {}
func (nopObserver) JobStarted(jobqueue.Job)                        {}
func (nopObserver) JobFinished(jobqueue.Job, time.Duration, error) {}
func (nopObserver) QueueDepth(int)                                 {}
