package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{Index: 0, CodecType: "audio"},
			{Index: 1, CodecType: "video", Width: 1920, Height: 1080},
			{Index: 2, CodecType: "video", Width: 320, Height: 240},
		},
		Format: Format{Duration: "12.5"},
	}
	w, h, err := result.Dimensions()
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 1920 || h != 1080 {
		t.Fatalf("expected first video stream, got %dx%d", w, h)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
	if result.DurationSeconds() != 12.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDimensionsWithoutVideo(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}, Format: Format{Duration: "bad"}}
	if _, _, err := result.Dimensions(); !errors.Is(err, ErrNoVideoStream) {
		t.Fatalf("expected ErrNoVideoStream, got %v", err)
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected NaN duration, got %v", result.DurationSeconds())
	}
}

func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestInspectDecodesOutput(t *testing.T) {
	stub := writeStub(t, `cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":640,"height":360}],
 "format":{"filename":"clip.mp4","nb_streams":1,"duration":"3.0","format_name":"mov,mp4"}}
JSON
`)
	result, err := Inspect(context.Background(), stub, "clip.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	w, h, err := result.Dimensions()
	if err != nil || w != 640 || h != 360 {
		t.Fatalf("unexpected dimensions %dx%d err=%v", w, h, err)
	}
	if result.Format.NBStreams != 1 {
		t.Fatalf("unexpected format: %+v", result.Format)
	}
}

func TestInspectReportsFailure(t *testing.T) {
	stub := writeStub(t, "echo 'clip.mp4: Invalid data' >&2\nexit 1\n")
	if _, err := Inspect(context.Background(), stub, "clip.mp4"); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
	if _, err := Inspect(context.Background(), stub, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
