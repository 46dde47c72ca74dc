// Package metrics exports dispatcher and supervisor counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritchie-gr8/video-editor/internal/dispatch"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
)

// Recorder owns a private registry and implements the dispatcher and
// supervisor observer hooks.
type Recorder struct {
	registry *prometheus.Registry

	jobsTotal      *prometheus.CounterVec
	jobDuration    prometheus.Histogram
	queueDepth     prometheus.Gauge
	workerRestarts *prometheus.CounterVec
	jobsSubmitted  prometheus.Counter
}

// New registers the collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "video_editor_jobs_total",
			Help: "Resize jobs finished, by outcome",
		}, []string{"outcome"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "video_editor_job_duration_seconds",
			Help:    "Wall time of one resize job",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "video_editor_queue_depth",
			Help: "Jobs waiting behind the running one",
		}),
		workerRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "video_editor_worker_restarts_total",
			Help: "Worker processes replaced after exiting, by slot",
		}, []string{"slot"}),
		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_editor_jobs_submitted_total",
			Help: "Resize jobs accepted by the dispatcher",
		}),
	}
	r.registry.MustRegister(
		r.jobsTotal,
		r.jobDuration,
		r.queueDepth,
		r.workerRestarts,
		r.jobsSubmitted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// JobSubmitted counts a submission.
func (r *Recorder) JobSubmitted(jobqueue.Job) {
	r.jobsSubmitted.Inc()
}

// JobStarted is a no-op; duration is observed on completion.
func (r *Recorder) JobStarted(jobqueue.Job) {}

// JobFinished records the job outcome and duration.
func (r *Recorder) JobFinished(_ jobqueue.Job, elapsed time.Duration, err error) {
	r.jobsTotal.WithLabelValues(dispatch.Outcome(err)).Inc()
	r.jobDuration.Observe(elapsed.Seconds())
}

// QueueDepth sets the pending gauge.
func (r *Recorder) QueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}

// WorkerRestarted counts a replaced worker.
func (r *Recorder) WorkerRestarted(slot int) {
	r.workerRestarts.WithLabelValues(strconv.Itoa(slot)).Inc()
}

// Handler serves /metrics and /healthz.
func (r *Recorder) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Server is a running metrics endpoint.
type Server struct {
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// Start listens on bind and serves the recorder in the background.
func Start(bind string, r *Recorder, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "metrics")
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, err
	}
	s := &Server{
		srv: &http.Server{
			Handler:           r.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: listener,
		done:     make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		logger.Info("metrics server listening", logging.String("address", listener.Addr().String()))
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(logger, "metrics server failed", "metrics_server_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics are no longer scraped"),
				logging.String(logging.FieldErrorHint, "check metrics.bind and restart the primary"),
			)
		}
	}()
	return s, nil
}

// Addr reports the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
