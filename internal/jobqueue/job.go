package jobqueue

import (
	"fmt"

	"github.com/ritchie-gr8/video-editor/internal/video"
)

// Kind names the transcode operation a job performs.
type Kind string

// KindResize is the only job kind.
const KindResize Kind = "resize"

// Job is an immutable unit of transcode work. Identity is structural:
// submitting the same video and size twice queues it twice.
type Job struct {
	Kind    Kind   `json:"kind"`
	VideoID string `json:"videoId"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	// RequestID correlates log lines across processes. It plays no part in
	// scheduling.
	RequestID string `json:"requestId,omitempty"`
}

// NewResize builds a resize job.
func NewResize(videoID string, width, height int) Job {
	return Job{Kind: KindResize, VideoID: videoID, Width: width, Height: height}
}

// Key returns the "WxH" resize key the job updates.
func (j Job) Key() string {
	return video.DimensionsKey(j.Width, j.Height)
}

// Validate checks that the job can be executed.
func (j Job) Validate() error {
	if j.Kind != KindResize {
		return fmt.Errorf("unsupported job kind %q", j.Kind)
	}
	if j.VideoID == "" {
		return fmt.Errorf("job is missing a video id")
	}
	return video.ValidateDimensions(j.Width, j.Height)
}

func (j Job) String() string {
	return fmt.Sprintf("%s %s %s", j.Kind, j.VideoID, j.Key())
}
