package textutil_test

import (
	"testing"

	"github.com/ritchie-gr8/video-editor/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Café Tour-320x240.mp4": "Cafe Tour-320x240.mp4",
		"a/b\\c:d*e?.mov":       "a-b-c-d-e.mov",
		"  \"quoted\" <x>|  ":   "quoted x",
		"日本語-audio.aac":         "-audio.aac",
		"":                      "",
	}
	for input, want := range cases {
		if got := textutil.SanitizeFileName(input); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"my_holiday-video.MP4": "My Holiday Video",
		"clip.mov":             "Clip",
		".mp4":                 "Untitled",
		"":                     "Untitled",
	}
	for input, want := range cases {
		if got := textutil.DisplayName(input); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestExtension(t *testing.T) {
	if got := textutil.Extension("Clip.MOV"); got != "mov" {
		t.Fatalf("Extension = %q", got)
	}
	if got := textutil.Extension("noext"); got != "" {
		t.Fatalf("expected empty extension, got %q", got)
	}
}
