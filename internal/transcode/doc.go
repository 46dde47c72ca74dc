// Package transcode wraps the ffmpeg and ffprobe invocations the service
// performs: resizing, thumbnail capture, audio extraction and frame-size
// probing.
//
// Failures are classified with the services error markers. A binary that
// cannot be started and a non-zero exit are both ErrExternalTool; a run that
// exits cleanly but leaves no output is ErrValidation.
package transcode
