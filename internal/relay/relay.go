package relay

import (
	"errors"
	"log/slog"
	"net/rpc"
	"sync"

	"github.com/ritchie-gr8/video-editor/internal/ipc"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
)

const defaultOutbox = 256

// Submitter accepts jobs for eventual execution.
type Submitter interface {
	Submit(job jobqueue.Job)
}

// Local forwards jobs straight to an in-process dispatcher.
type Local struct {
	sink   Submitter
	logger *slog.Logger
}

// NewLocal wraps sink, normally a *dispatch.Dispatcher.
func NewLocal(sink Submitter, logger *slog.Logger) *Local {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Local{sink: sink, logger: logging.NewComponentLogger(logger, "relay")}
}

// Submit forwards job.
func (l *Local) Submit(job jobqueue.Job) {
	l.logger.Debug("job relayed in-process",
		logging.String(logging.FieldEventType, "relay_submit"),
		logging.String(logging.FieldVideoID, job.VideoID),
		logging.String(logging.FieldJobKey, job.Key()),
		logging.String(logging.FieldCorrelationID, job.RequestID),
	)
	l.sink.Submit(job)
}

type client interface {
	Submit(msg ipc.Message) (*ipc.SubmitResponse, error)
	Close() error
}

// Remote forwards jobs to the primary over IPC. A single sender goroutine
// delivers messages in submission order.
type Remote struct {
	socket string
	logger *slog.Logger
	dial   func(path string) (client, error)

	mu     sync.Mutex
	closed bool
	outbox chan jobqueue.Job
	done   chan struct{}

	conn client
}

// RemoteOption customizes a Remote.
type RemoteOption func(*Remote)

// WithOutboxSize bounds the number of undelivered jobs held in memory.
func WithOutboxSize(n int) RemoteOption {
	return func(r *Remote) {
		if n > 0 {
			r.outbox = make(chan jobqueue.Job, n)
		}
	}
}

// NewRemote starts a relay to the primary listening on socket.
func NewRemote(socket string, logger *slog.Logger, opts ...RemoteOption) *Remote {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Remote{
		socket: socket,
		logger: logging.NewComponentLogger(logger, "relay"),
		dial: func(path string) (client, error) {
			return ipc.Dial(path)
		},
		outbox: make(chan jobqueue.Job, defaultOutbox),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Submit queues job for delivery and returns immediately.
func (r *Remote) Submit(job jobqueue.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.warnLost(job, errors.New("relay closed"))
		return
	}
	select {
	case r.outbox <- job:
	default:
		r.warnLost(job, errors.New("relay outbox full"))
	}
}

// Close flushes queued jobs and releases the connection.
func (r *Remote) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.outbox)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Remote) run() {
	defer close(r.done)
	for job := range r.outbox {
		r.send(job)
	}
	r.dropConn()
}

func (r *Remote) send(job jobqueue.Job) {
	if r.conn == nil {
		conn, err := r.dial(r.socket)
		if err != nil {
			r.warnLost(job, err)
			return
		}
		r.conn = conn
	}
	if _, err := r.conn.Submit(ipc.NewResizeMessage(job)); err != nil {
		var serverErr rpc.ServerError
		if !errors.As(err, &serverErr) {
			r.dropConn()
		}
		r.warnLost(job, err)
		return
	}
	r.logger.Debug("job relayed to primary",
		logging.String(logging.FieldEventType, "relay_submit"),
		logging.String(logging.FieldVideoID, job.VideoID),
		logging.String(logging.FieldJobKey, job.Key()),
		logging.String(logging.FieldCorrelationID, job.RequestID),
	)
}

func (r *Remote) dropConn() {
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

func (r *Remote) warnLost(job jobqueue.Job, err error) {
	logging.WarnWithContext(r.logger, "resize job not delivered", "relay_submit_failed",
		logging.String(logging.FieldVideoID, job.VideoID),
		logging.String(logging.FieldJobKey, job.Key()),
		logging.String(logging.FieldCorrelationID, job.RequestID),
		logging.String("socket", r.socket),
		logging.Error(err),
		logging.String(logging.FieldImpact, "resize stays processing until the primary restarts"),
		logging.String(logging.FieldErrorHint, "check that the primary is running; restart it to recover the job"),
	)
}
