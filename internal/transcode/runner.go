package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/fileutil"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/media/ffprobe"
	"github.com/ritchie-gr8/video-editor/internal/services"
)

const (
	component     = "transcode"
	outputTail    = 8
	cancelGrace   = 5 * time.Second
	defaultFFmpeg = "ffmpeg"
)

// errSpawn marks a process that never started.
var errSpawn = errors.New("spawn failed")

type commandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Runner executes media tools.
type Runner struct {
	ffmpeg          string
	ffprobe         string
	threads         int
	thumbnailOffset int
	logger          *slog.Logger
	run             commandRunner
}

// New constructs a Runner from the media settings.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	ffmpegBin := strings.TrimSpace(cfg.Media.FFmpegBinary)
	if ffmpegBin == "" {
		ffmpegBin = defaultFFmpeg
	}
	threads := cfg.Media.ResizeThreads
	if threads <= 0 {
		threads = 2
	}
	return &Runner{
		ffmpeg:          ffmpegBin,
		ffprobe:         cfg.Media.FFprobeBinary,
		threads:         threads,
		thumbnailOffset: cfg.Media.ThumbnailOffsetSeconds,
		logger:          logging.NewComponentLogger(logger, component),
		run:             runCommand,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *Runner) WithCommandRunner(fn commandRunner) {
	if r != nil && fn != nil {
		r.run = fn
	}
}

// Resize scales src to width x height, copying the audio track.
func (r *Runner) Resize(ctx context.Context, src, dst string, width, height int) error {
	args := []string{
		"-i", src,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-c:a", "copy",
		"-threads", strconv.Itoa(r.threads),
		"-y", dst,
	}
	return r.ffmpegTo(ctx, "resize", dst, args)
}

// Thumbnail captures a single frame at the configured offset.
func (r *Runner) Thumbnail(ctx context.Context, src, dst string) error {
	args := []string{
		"-i", src,
		"-ss", strconv.Itoa(r.thumbnailOffset),
		"-vframes", "1",
		"-y", dst,
	}
	return r.ffmpegTo(ctx, "thumbnail", dst, args)
}

// ExtractAudio copies the audio track of src into dst without re-encoding.
func (r *Runner) ExtractAudio(ctx context.Context, src, dst string) error {
	args := []string{"-i", src, "-vn", "-c:a", "copy", "-y", dst}
	return r.ffmpegTo(ctx, "extract audio", dst, args)
}

// Dimensions returns the frame size of the first video stream in path.
func (r *Runner) Dimensions(ctx context.Context, path string) (int, int, error) {
	result, err := ffprobe.Inspect(ctx, r.ffprobe, path)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrExternalTool, component, "probe", "ffprobe failed", err)
	}
	width, height, err := result.Dimensions()
	if err != nil {
		return 0, 0, services.Wrap(services.ErrValidation, component, "probe", "unreadable video stream", err)
	}
	return width, height, nil
}

func (r *Runner) ffmpegTo(ctx context.Context, operation, dst string, args []string) error {
	started := time.Now()
	r.logger.Debug("executing ffmpeg",
		logging.String(logging.FieldEventType, "ffmpeg_started"),
		logging.String("operation", operation),
		logging.String("args", strings.Join(args, " ")),
	)

	output, err := r.run(ctx, r.ffmpeg, args...)
	if err != nil {
		if errors.Is(err, errSpawn) {
			return services.Wrap(services.ErrExternalTool, component, "spawn", "cannot start "+r.ffmpeg, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return services.Wrap(services.ErrExternalTool, component, operation, "interrupted", ctxErr)
		}
		return services.Wrap(services.ErrExternalTool, component, operation, tail(output, outputTail), err)
	}
	if !fileutil.NonEmptyFile(dst) {
		return services.Wrap(services.ErrValidation, component, operation, "ffmpeg produced no output", fmt.Errorf("missing or empty %s", dst))
	}

	r.logger.Debug("ffmpeg finished",
		logging.String(logging.FieldEventType, "ffmpeg_finished"),
		logging.String("operation", operation),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = cancelGrace

	output, err := cmd.CombinedOutput()
	if err == nil {
		return output, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return output, err
	}
	if ctx.Err() != nil {
		return output, err
	}
	return output, fmt.Errorf("%w: %w", errSpawn, err)
}

func tail(output []byte, lines int) string {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return "no output"
	}
	parts := strings.Split(trimmed, "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, " | ")
}
