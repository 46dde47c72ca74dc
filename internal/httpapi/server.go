package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/relay"
	"github.com/ritchie-gr8/video-editor/internal/services"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

const (
	headerUserID    = "X-User-ID"
	headerRequestID = "X-Request-ID"
	headerFileName  = "filename"
)

// Media runs the ffmpeg work that happens inside a request.
type Media interface {
	Thumbnail(ctx context.Context, src, dst string) error
	Dimensions(ctx context.Context, path string) (int, int, error)
	ExtractAudio(ctx context.Context, src, dst string) error
}

// Options wires a Server.
type Options struct {
	Config    *config.Config
	Store     store.Store
	Media     Media
	Submitter relay.Submitter
	Logger    *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg       *config.Config
	store     store.Store
	media     Media
	submitter relay.Submitter
	layout    video.Layout
	logger    *slog.Logger
	router    chi.Router
}

// New builds the router.
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Store == nil || opts.Media == nil || opts.Submitter == nil {
		return nil, errors.New("httpapi requires config, store, media, and submitter")
	}
	s := &Server{
		cfg:       opts.Config,
		store:     opts.Store,
		media:     opts.Media,
		submitter: opts.Submitter,
		layout:    video.Layout{Root: opts.Config.Paths.StorageDir},
		logger:    logging.NewComponentLogger(opts.Logger, "http"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/videos", s.handleListVideos)
	r.Post("/api/upload-video", s.handleUpload)
	r.Patch("/api/video/extract-audio", s.handleExtractAudio)
	r.Put("/api/video/resize", s.handleResize)
	r.Get("/get-video-asset", s.handleAsset)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	s.router = r
	return s, nil
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve handles requests on listener until ctx is cancelled, then drains
// in-flight requests for up to the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("http server listening", logging.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.WarnWithContext(s.logger, "http shutdown incomplete", "http_shutdown_timeout",
			logging.Error(err),
			logging.String(logging.FieldImpact, "in-flight uploads were cut off"),
			logging.String(logging.FieldErrorHint, "raise server.shutdown_timeout_seconds"),
		)
		_ = srv.Close()
	}
	<-errCh
	return nil
}

func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.WithContext(r.Context(), s.logger).Debug("http request",
			logging.String(logging.FieldEventType, "http_request"),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}
