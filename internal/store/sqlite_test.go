package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/testsupport"
)

func TestOpenSelectsSQLiteDriver(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStoreDriver(config.StoreDriverSQLite))
	s := testsupport.MustOpenStore(t, cfg)

	if _, ok := s.(*store.SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", s)
	}
	if s.Path() != cfg.StorePath() {
		t.Fatalf("unexpected store path: %q", s.Path())
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStoreDriver("postgres"))
	if _, err := store.Open(cfg); !errors.Is(err, store.ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStoreDriver(config.StoreDriverSQLite))
	s := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	second := newRecord("bbbbbbbb", map[string]bool{"320x240": false})
	second.UserID = "user-7"
	second.ExtractedAudio = true
	err := store.Mutate(ctx, s, func(s store.Store) error {
		s.Put(newRecord("aaaaaaaa", map[string]bool{"640x360": true, "1280x720": false}))
		s.Put(second)
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	reopened, err := store.OpenSQLite(cfg.StorePath())
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	records := reopened.Videos()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].VideoID != "aaaaaaaa" || records[1].VideoID != "bbbbbbbb" {
		t.Fatalf("unexpected order: %s, %s", records[0].VideoID, records[1].VideoID)
	}
	if !records[0].Resizes["640x360"].Processing || records[0].Resizes["1280x720"].Processing {
		t.Fatalf("unexpected resizes: %+v", records[0].Resizes)
	}
	if records[1].UserID != "user-7" || !records[1].ExtractedAudio {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
	if !records[0].CreatedAt.Equal(newRecord("x", nil).CreatedAt) {
		t.Fatalf("created_at not preserved: %v", records[0].CreatedAt)
	}
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStoreDriver(config.StoreDriverSQLite))
	for i := 0; i < 2; i++ {
		s, err := store.OpenSQLite(cfg.StorePath())
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close #%d: %v", i, err)
		}
	}
}

func TestSQLiteSaveDropsDeletedRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStoreDriver(config.StoreDriverSQLite))
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedVideo(t, cfg, s, "cccccccc", map[string]bool{"100x100": true})
	err := store.Mutate(ctx, s, func(s store.Store) error {
		if !s.Delete("cccccccc") {
			t.Fatal("expected delete to report true")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	records, err := store.Snapshot(ctx, s)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store, got %d records", len(records))
	}
}
