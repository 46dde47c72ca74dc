package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ritchie-gr8/video-editor/internal/fileutil"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

// JSONStore keeps every record in one JSON array file.
type JSONStore struct {
	path string
	lock *fileLock
	set  recordSet
}

// OpenJSON opens (or lazily creates) the array file at path and loads it.
func OpenJSON(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	s := &JSONStore{path: path, lock: newFileLock(path)}
	if err := s.Reload(context.Background()); err != nil {
		_ = s.lock.Close()
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory set with the file contents. A missing or
// empty file is an empty store.
func (s *JSONStore) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.set.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.set.replace(nil)
		return nil
	}
	var records []*video.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode store %s: %w", s.path, err)
	}
	s.set.replace(records)
	return nil
}

func (s *JSONStore) Videos() []*video.Record { return s.set.list() }

func (s *JSONStore) FindVideo(id string) (*video.Record, bool) { return s.set.find(id) }

func (s *JSONStore) Put(rec *video.Record) { s.set.put(rec) }

func (s *JSONStore) Delete(id string) bool { return s.set.delete(id) }

// Save writes the in-memory set atomically.
func (s *JSONStore) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	records := s.set.list()
	if records == nil {
		records = []*video.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

func (s *JSONStore) Lock(ctx context.Context) (func(), error) { return s.lock.Lock(ctx) }

func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Close() error { return s.lock.Close() }
