package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ritchie-gr8/video-editor/internal/fileutil"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "videos.json")
	if err := fileutil.WriteFileAtomic(path, []byte("[1]"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte("[1,2]"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[1,2]" {
		t.Fatalf("unexpected content %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be gone, found %d entries", len(entries))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteStreamRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a", "original.mp4")
	n, err := fileutil.WriteStream(good, strings.NewReader("video-bytes"))
	if err != nil || n != int64(len("video-bytes")) {
		t.Fatalf("WriteStream: n=%d err=%v", n, err)
	}

	bad := filepath.Join(dir, "b", "original.mp4")
	if _, err := fileutil.WriteStream(bad, failingReader{}); err == nil {
		t.Fatal("expected error from failing reader")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("expected partial file to be removed, stat err=%v", err)
	}
}

func TestRemoveQuietlyIgnoresMissing(t *testing.T) {
	dir := t.TempDir()
	fileutil.RemoveQuietly(filepath.Join(dir, "missing.mp4"))
	fileutil.RemoveAllQuietly(filepath.Join(dir, "missing-dir"))

	target := filepath.Join(dir, "320x240.mp4")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !fileutil.NonEmptyFile(target) {
		t.Fatal("expected NonEmptyFile to be true")
	}
	fileutil.RemoveQuietly(target)
	if fileutil.NonEmptyFile(target) {
		t.Fatal("expected file to be removed")
	}
}
