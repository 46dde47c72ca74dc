package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/daemon"
	"github.com/ritchie-gr8/video-editor/internal/deps"
	"github.com/ritchie-gr8/video-editor/internal/dispatch"
	"github.com/ritchie-gr8/video-editor/internal/httpapi"
	"github.com/ritchie-gr8/video-editor/internal/ipc"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/metrics"
	"github.com/ritchie-gr8/video-editor/internal/relay"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/supervisor"
	"github.com/ritchie-gr8/video-editor/internal/transcode"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

// Options configures the primary process.
type Options struct {
	// ConfigPath is forwarded to workers; empty means defaults.
	ConfigPath string
	// SocketPath overrides the IPC socket location.
	SocketPath string
	// Inline serves HTTP from the primary instead of forking workers.
	Inline bool
}

// Run starts the primary: it recovers interrupted resizes, owns the
// dispatcher, serves IPC and metrics, and supervises the HTTP workers.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logDependencySnapshot(logger, cfg)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open video store", logging.Error(err))
		return err
	}

	recorder := metrics.New()
	runner := transcode.New(cfg, logger)
	disp, err := dispatch.New(signalCtx, dispatch.Options{
		LockPath: cfg.LockPath(),
		Store:    st,
		Runner:   runner,
		Layout:   video.Layout{Root: cfg.Paths.StorageDir},
		Logger:   logger,
		Observer: recorder,
	})
	if err != nil {
		_ = st.Close()
		if errors.Is(err, dispatch.ErrAlreadyRunning) {
			return fmt.Errorf("another video-editor primary owns %s: %w", cfg.LockPath(), err)
		}
		return fmt.Errorf("create dispatcher: %w", err)
	}

	d, err := daemon.New(cfg, st, disp, logger)
	if err != nil {
		_ = disp.Close()
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// Written only once the dispatcher lock is held.
	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if bind := strings.TrimSpace(cfg.Metrics.Bind); bind != "" {
		metricsServer, err := metrics.Start(bind, recorder, logger)
		if err != nil {
			logging.WarnWithContext(logger, "metrics server unavailable", "metrics_listen_failed",
				logging.String("bind", bind),
				logging.Error(err),
				logging.String(logging.FieldImpact, "dispatcher metrics will not be scraped"),
				logging.String(logging.FieldErrorHint, "free the port or change metrics.bind"),
			)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsServer.Shutdown(shutdownCtx)
			}()
		}
	}

	runCtx, stopRun := context.WithCancel(signalCtx)
	defer stopRun()
	var httpWG sync.WaitGroup

	if opts.Inline {
		d.SetInline(true)
		srv, err := httpapi.New(httpapi.Options{
			Config:    cfg,
			Store:     st,
			Media:     runner,
			Submitter: relay.NewLocal(disp, logger),
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		listener, err := httpapi.Listen(signalCtx, cfg.Server.Bind)
		if err != nil {
			return fmt.Errorf("http listen: %w", err)
		}
		httpWG.Add(1)
		go func() {
			defer httpWG.Done()
			if err := srv.Serve(runCtx, listener); err != nil {
				logging.ErrorWithContext(logger, "http server failed", "http_server_failed", logging.Error(err))
				d.Stop()
			}
		}()
	} else {
		args := []string{"worker", "--socket", socketPath}
		if path := strings.TrimSpace(opts.ConfigPath); path != "" {
			args = append(args, "--config", path)
		}
		launcher, err := supervisor.SelfLauncher(args...)
		if err != nil {
			return err
		}
		launcher.KillGrace = cfg.ShutdownTimeout()
		pool, err := supervisor.New(supervisor.Options{
			Launcher:   launcher,
			Size:       cfg.WorkerCount(),
			SpawnRetry: cfg.SpawnRetry(),
			Logger:     logger,
			Observer:   recorder,
		})
		if err != nil {
			return err
		}
		d.AttachWorkers(pool)
	}

	runErr := d.Run(signalCtx)
	stopRun()
	httpWG.Wait()
	logger.Info("video-editor primary shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("store_driver", cfg.Store.Driver),
		logging.String("store_path", cfg.StorePath()),
		logging.Int("workers", cfg.WorkerCount()),
	}
	statuses := deps.CheckMedia(cfg)
	for _, status := range statuses {
		key := strings.ToLower(status.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
	for _, missing := range deps.Missing(statuses) {
		logging.WarnWithContext(logger, "media tool missing", "dependency_missing",
			logging.String("name", missing.Name),
			logging.String("command", missing.Command),
			logging.String(logging.FieldImpact, "uploads and resizes will fail"),
			logging.String(logging.FieldErrorHint, "install ffmpeg or set media.ffmpeg_binary / media.ffprobe_binary"),
		)
	}
}
