package api

import (
	"time"

	"github.com/ritchie-gr8/video-editor/internal/deps"
	"github.com/ritchie-gr8/video-editor/internal/dispatch"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/supervisor"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

// FromRecord converts a stored record to its API representation.
func FromRecord(rec *video.Record) Video {
	if rec == nil {
		return Video{}
	}
	dto := Video{
		VideoID:        rec.VideoID,
		Name:           rec.Name,
		Extension:      rec.Extension,
		Dimensions:     Dimensions{Width: rec.Dimensions.Width, Height: rec.Dimensions.Height},
		UserID:         rec.UserID,
		ExtractedAudio: rec.ExtractedAudio,
		Resizes:        make(map[string]Resize, len(rec.Resizes)),
		CreatedAt:      formatTime(rec.CreatedAt),
	}
	for key, state := range rec.Resizes {
		dto.Resizes[key] = Resize{Processing: state.Processing}
	}
	return dto
}

// FromRecords converts a record list, keeping its order.
func FromRecords(records []*video.Record) []Video {
	out := make([]Video, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		out = append(out, FromRecord(rec))
	}
	return out
}

// FromJob converts a dispatcher job.
func FromJob(job jobqueue.Job) Job {
	return Job{
		Kind:      string(job.Kind),
		VideoID:   job.VideoID,
		Width:     job.Width,
		Height:    job.Height,
		Key:       job.Key(),
		RequestID: job.RequestID,
	}
}

// FromSnapshot converts a dispatcher snapshot.
func FromSnapshot(snap dispatch.Snapshot) DispatcherStatus {
	dto := DispatcherStatus{
		Running:   snap.Running,
		Pending:   make([]Job, 0, len(snap.Pending)),
		Recovered: snap.Recovered,
		Submitted: snap.Submitted,
		Succeeded: snap.Succeeded,
		Failed:    snap.Failed,
		LastError: snap.LastError,
	}
	if snap.Current != nil {
		current := FromJob(*snap.Current)
		dto.Current = &current
	}
	for _, job := range snap.Pending {
		dto.Pending = append(dto.Pending, FromJob(job))
	}
	return dto
}

// FromWorkers converts the supervisor slot table.
func FromWorkers(workers []supervisor.Worker) []WorkerStatus {
	out := make([]WorkerStatus, 0, len(workers))
	for _, w := range workers {
		out = append(out, WorkerStatus{
			Slot:      w.Slot,
			PID:       w.PID,
			Restarts:  w.Restarts,
			StartedAt: formatTime(w.StartedAt),
			LastExit:  w.LastExit,
		})
	}
	return out
}

// FromDeps converts dependency checks.
func FromDeps(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus(s))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
