package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/httpapi"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/relay"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/supervisor"
	"github.com/ritchie-gr8/video-editor/internal/transcode"
)

// WorkerOptions configures one HTTP worker.
type WorkerOptions struct {
	SocketPath string
}

// RunWorker serves the HTTP API and relays resize jobs to the primary over
// IPC. It returns when the primary signals it or exits.
func RunWorker(cmdCtx context.Context, cfg *config.Config, opts WorkerOptions) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	ctx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := exitWithParent(ctx, cancel); err != nil {
		return fmt.Errorf("bind worker to primary: %w", err)
	}

	base, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slot, _ := strconv.Atoi(os.Getenv(supervisor.SlotEnv))
	logger := base.With(
		logging.String(logging.FieldComponent, "worker"),
		logging.Int(logging.FieldWorkerSlot, slot),
		logging.Int(logging.FieldPID, os.Getpid()),
	)

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open video store: %w", err)
	}
	defer st.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	remote := relay.NewRemote(socketPath, logger)
	defer remote.Close()

	srv, err := httpapi.New(httpapi.Options{
		Config:    cfg,
		Store:     st,
		Media:     transcode.New(cfg, logger),
		Submitter: remote,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	listener, err := httpapi.Listen(ctx, cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	logger.Info("worker ready", logging.String(logging.FieldEventType, "worker_ready"))
	return srv.Serve(ctx, listener)
}
