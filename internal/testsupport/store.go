package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

// MustOpenStore opens the configured store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) store.Store {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// SeedVideo persists a record with the given resize flags and writes a
// non-empty original file for it. keys maps "WxH" to the processing flag.
func SeedVideo(t testing.TB, cfg *config.Config, s store.Store, id string, keys map[string]bool) *video.Record {
	t.Helper()

	rec := &video.Record{
		VideoID:    id,
		Name:       "clip-" + id,
		Extension:  "mp4",
		Dimensions: video.Dimensions{Width: 1920, Height: 1080},
		Resizes:    make(map[string]video.ResizeState),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	for key, processing := range keys {
		rec.Resizes[key] = video.ResizeState{Processing: processing}
	}
	err := store.Mutate(context.Background(), s, func(s store.Store) error {
		s.Put(rec)
		return nil
	})
	if err != nil {
		t.Fatalf("seed video %s: %v", id, err)
	}

	layout := video.Layout{Root: cfg.Paths.StorageDir}
	WriteFile(t, layout.Original(id, rec.Extension), []byte("original-"+id))
	return rec.Clone()
}

// WriteFile creates parent directories and writes data to path.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
