// Package recovery rebuilds the resize backlog from persisted records.
//
// Any resize entry still flagged processing is work the previous dispatcher
// never finished, whether it crashed, was stopped, or the transcode failed.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

// Scan returns one resize job per processing entry, in store order with each
// record's keys sorted. Malformed keys are logged and skipped.
func Scan(ctx context.Context, s store.Store, logger *slog.Logger) ([]jobqueue.Job, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "recovery")

	var jobs []jobqueue.Job
	err := store.View(ctx, s, func(s store.Store) error {
		for _, rec := range s.Videos() {
			jobs = append(jobs, pendingJobs(rec, logger)...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan store: %w", err)
	}

	if len(jobs) > 0 {
		logger.Info("recovered unfinished resizes",
			logging.String(logging.FieldEventType, "recovery_scan_complete"),
			logging.Int("job_count", len(jobs)),
			logging.String("store", s.Path()),
		)
	} else {
		logger.Debug("no unfinished resizes", logging.String(logging.FieldEventType, "recovery_scan_complete"))
	}
	return jobs, nil
}

func pendingJobs(rec *video.Record, logger *slog.Logger) []jobqueue.Job {
	keys := make([]string, 0, len(rec.Resizes))
	for key, state := range rec.Resizes {
		if state.Processing {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	jobs := make([]jobqueue.Job, 0, len(keys))
	for _, key := range keys {
		width, height, err := video.ParseDimensionsKey(key)
		if err != nil {
			logging.WarnWithContext(logger, "skipping malformed resize key", "recovery_key_invalid",
				logging.String(logging.FieldVideoID, rec.VideoID),
				logging.String(logging.FieldJobKey, key),
				logging.Error(err),
				logging.String(logging.FieldImpact, "resize will never be retried"),
				logging.String(logging.FieldErrorHint, "remove or correct the entry in the store"),
			)
			continue
		}
		jobs = append(jobs, jobqueue.NewResize(rec.VideoID, width, height))
	}
	return jobs
}
