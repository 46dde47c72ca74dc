package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/fileutil"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/services"
	"github.com/ritchie-gr8/video-editor/internal/store"
)

// execute runs one job to a terminal state. It never panics the loop and
// always returns a result.
func (d *Dispatcher) execute(ctx context.Context, job jobqueue.Job) result {
	start := time.Now()
	ctx = services.WithVideoID(ctx, job.VideoID)
	if job.RequestID != "" {
		ctx = services.WithRequestID(ctx, job.RequestID)
	}
	logger := logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldJobKey, job.Key()))

	logger.Info("resize started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.Int("width", job.Width),
		logging.Int("height", job.Height),
	)

	err := d.run(ctx, job, logger)
	elapsed := time.Since(start)
	if err != nil {
		logging.ErrorWithContext(logger, "resize failed", "job_failed",
			logging.Error(err),
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldErrorHint, "the resize stays flagged processing and is retried on the next start"),
		)
		return result{job: job, elapsed: elapsed, err: err}
	}
	logger.Info("resize finished",
		logging.String(logging.FieldEventType, "job_succeeded"),
		logging.Duration("elapsed", elapsed),
	)
	return result{job: job, elapsed: elapsed}
}

func (d *Dispatcher) run(ctx context.Context, job jobqueue.Job, logger *slog.Logger) error {
	if err := job.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "dispatcher", "validate job", job.String(), err)
	}

	rec, err := store.Get(ctx, d.store, job.VideoID)
	if err != nil {
		return fmt.Errorf("load video record: %w", err)
	}

	src := d.layout.Original(rec.VideoID, rec.Extension)
	dst := d.layout.Resized(rec.VideoID, job.Width, job.Height, rec.Extension)
	if err := d.runner.Resize(ctx, src, dst, job.Width, job.Height); err != nil {
		fileutil.RemoveQuietly(dst)
		return err
	}

	// The transcode already succeeded; record it even if shutdown began.
	persistCtx := context.WithoutCancel(ctx)
	var vanished bool
	err = store.Mutate(persistCtx, d.store, func(s store.Store) error {
		fresh, ok := s.FindVideo(job.VideoID)
		if !ok {
			vanished = true
			return nil
		}
		if !fresh.MarkResized(job.Width, job.Height) {
			vanished = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist resize result: %w", err)
	}
	if vanished {
		logging.WarnWithContext(logger, "resize entry disappeared before completion", "job_entry_missing",
			logging.String(logging.FieldImpact, "output file kept but not recorded on the video"),
			logging.String(logging.FieldErrorHint, "re-request the resize if it is still wanted"),
			logging.String("output", dst),
		)
	}
	return nil
}

// Outcome classifies a job result for reporting.
func Outcome(err error) string {
	if err == nil {
		return "succeeded"
	}
	return "failed"
}
