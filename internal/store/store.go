package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

var (
	// ErrNotFound reports a missing video record.
	ErrNotFound = errors.New("video not found")
	// ErrUnknownDriver reports an unsupported store.driver setting.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store is the persisted set of video records.
//
// Records returned by Videos and FindVideo are live; mutate them only while
// holding Lock and persist the change with Save.
type Store interface {
	Reload(ctx context.Context) error
	Videos() []*video.Record
	FindVideo(id string) (*video.Record, bool)
	Put(rec *video.Record)
	Delete(id string) bool
	Save(ctx context.Context) error
	Lock(ctx context.Context) (func(), error)
	Path() string
	Close() error
}

// Open returns the driver selected by cfg.Store.Driver.
func Open(cfg *config.Config) (Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	switch cfg.Store.Driver {
	case config.StoreDriverJSON, "":
		return OpenJSON(cfg.StorePath())
	case config.StoreDriverSQLite:
		return OpenSQLite(cfg.StorePath())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Store.Driver)
	}
}

// Mutate locks the store, reloads it, applies fn and saves the result. When fn
// returns an error nothing is saved.
func Mutate(ctx context.Context, s Store, fn func(Store) error) error {
	unlock, err := s.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.Reload(ctx); err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return s.Save(ctx)
}

// View locks the store, reloads it and applies fn without saving.
func View(ctx context.Context, s Store, fn func(Store) error) error {
	unlock, err := s.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.Reload(ctx); err != nil {
		return err
	}
	return fn(s)
}

// Snapshot returns deep copies of every record in store order after a locked
// reload.
func Snapshot(ctx context.Context, s Store) ([]*video.Record, error) {
	var out []*video.Record
	err := View(ctx, s, func(s Store) error {
		for _, rec := range s.Videos() {
			out = append(out, rec.Clone())
		}
		return nil
	})
	return out, err
}

// Get returns a copy of one record after a locked reload.
func Get(ctx context.Context, s Store, id string) (*video.Record, error) {
	var found *video.Record
	err := View(ctx, s, func(s Store) error {
		rec, ok := s.FindVideo(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		found = rec.Clone()
		return nil
	})
	return found, err
}
