package video

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dimensions is a video frame size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ResizeState tracks one requested output size.
type ResizeState struct {
	Processing bool `json:"processing"`
}

// Record is the persisted description of an uploaded video.
type Record struct {
	VideoID        string                 `json:"videoId"`
	Name           string                 `json:"name"`
	Extension      string                 `json:"extension"`
	Dimensions     Dimensions             `json:"dimensions"`
	UserID         string                 `json:"userId,omitempty"`
	ExtractedAudio bool                   `json:"extractedAudio"`
	Resizes        map[string]ResizeState `json:"resizes"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// NewID returns a short random video identifier (8 lowercase hex characters).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// MarkResizing records that a WxH output is in progress.
func (r *Record) MarkResizing(width, height int) {
	if r.Resizes == nil {
		r.Resizes = make(map[string]ResizeState)
	}
	r.Resizes[DimensionsKey(width, height)] = ResizeState{Processing: true}
}

// MarkResized clears the processing flag for a WxH output. It reports false
// when no such entry exists; the entry is not created in that case.
func (r *Record) MarkResized(width, height int) bool {
	key := DimensionsKey(width, height)
	if _, ok := r.Resizes[key]; !ok {
		return false
	}
	r.Resizes[key] = ResizeState{Processing: false}
	return true
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Resizes != nil {
		clone.Resizes = make(map[string]ResizeState, len(r.Resizes))
		for k, v := range r.Resizes {
			clone.Resizes[k] = v
		}
	}
	return &clone
}
