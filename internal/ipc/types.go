package ipc

import (
	"fmt"

	"github.com/ritchie-gr8/video-editor/internal/api"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
)

// ServiceName is the RPC service the primary registers.
const ServiceName = "Dispatcher"

// KindNewResize is the only message kind the dispatcher accepts.
const KindNewResize = "new-resize"

// Message is a job hand-off from a worker or the CLI.
type Message struct {
	Kind      string `json:"kind"`
	VideoID   string `json:"videoId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	RequestID string `json:"requestId,omitempty"`
}

// NewResizeMessage wraps a job for the wire.
func NewResizeMessage(job jobqueue.Job) Message {
	return Message{
		Kind:      KindNewResize,
		VideoID:   job.VideoID,
		Width:     job.Width,
		Height:    job.Height,
		RequestID: job.RequestID,
	}
}

// Job converts the message into a dispatcher job.
func (m Message) Job() (jobqueue.Job, error) {
	if m.Kind != KindNewResize {
		return jobqueue.Job{}, fmt.Errorf("unsupported message kind %q", m.Kind)
	}
	job := jobqueue.NewResize(m.VideoID, m.Width, m.Height)
	job.RequestID = m.RequestID
	if err := job.Validate(); err != nil {
		return jobqueue.Job{}, err
	}
	return job, nil
}

// SubmitRequest carries one message.
type SubmitRequest struct {
	Message Message `json:"message"`
}

// SubmitResponse acknowledges a submission.
type SubmitResponse struct {
	Accepted bool `json:"accepted"`
}

// StatusRequest fetches primary status.
type StatusRequest struct{}

// StatusResponse is the primary's status.
type StatusResponse = api.DaemonStatus

// StopRequest asks the primary to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
