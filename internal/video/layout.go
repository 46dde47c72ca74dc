package video

import (
	"path/filepath"
	"strings"
)

// Layout resolves asset paths beneath the storage root. Each video owns one
// directory named after its id.
type Layout struct {
	Root string
}

// Dir returns the directory holding every asset for the video.
func (l Layout) Dir(videoID string) string {
	return filepath.Join(l.Root, filepath.Base(strings.TrimSpace(videoID)))
}

// Original returns the uploaded source file path.
func (l Layout) Original(videoID, ext string) string {
	return filepath.Join(l.Dir(videoID), "original."+ext)
}

// Thumbnail returns the generated thumbnail path.
func (l Layout) Thumbnail(videoID string) string {
	return filepath.Join(l.Dir(videoID), "thumbnail.jpg")
}

// Audio returns the extracted audio track path.
func (l Layout) Audio(videoID string) string {
	return filepath.Join(l.Dir(videoID), "audio.aac")
}

// Resized returns the path of a WxH output.
func (l Layout) Resized(videoID string, width, height int, ext string) string {
	return filepath.Join(l.Dir(videoID), DimensionsKey(width, height)+"."+ext)
}
