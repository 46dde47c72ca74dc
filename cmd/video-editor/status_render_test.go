package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/ritchie-gr8/video-editor/internal/api"
	"github.com/ritchie-gr8/video-editor/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Primary", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Primary:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Primary", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestStatusKindFromSeverity(t *testing.T) {
	cases := map[string]statusKind{"ok": statusOK, " WARN ": statusWarn, "error": statusError, "": statusInfo}
	for in, want := range cases {
		if got := statusKindFromSeverity(in); got != want {
			t.Fatalf("statusKindFromSeverity(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRenderStatusEmptyQueueInline(t *testing.T) {
	var buf bytes.Buffer
	status := ipc.StatusResponse(api.DaemonStatus{Running: true, Inline: true})
	renderStatus(&buf, &status, false)
	out := buf.String()
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected empty queue message:\n%s", out)
	}
	if strings.Contains(out, "== Workers ==") {
		t.Fatalf("inline primary should not list workers:\n%s", out)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}
