// Package api defines wire-format types and converters shared by the HTTP
// routes, the IPC service and the CLI renderers.
//
// # Key Types
//
// Video: transport representation of a stored video record. Field names match
// the original JSON data file so existing clients keep working.
//
// Job, DispatcherStatus, WorkerStatus, DaemonStatus: runtime views of the
// primary process for `video-editor status` and the IPC Status call.
//
// # Converters
//
// FromRecord: video.Record -> Video, with resize keys sorted.
//
// FromJob and FromSnapshot: dispatcher state -> Job / DispatcherStatus.
//
// FromWorkers and FromDeps: supervisor and dependency reports.
//
// Timestamps use RFC3339 with milliseconds.
package api
