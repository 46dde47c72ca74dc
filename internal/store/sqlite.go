package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ritchie-gr8/video-editor/internal/video"
)

// SQLiteStore keeps records in the videos and video_resizes tables.
type SQLiteStore struct {
	db   *sql.DB
	path string
	lock *fileLock
	set  recordSet
}

// OpenSQLite opens the database at path, applies pending migrations and
// loads the records.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ctx := context.Background()
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, path: path, lock: newFileLock(path)}
	if err := s.Reload(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Reload reads every record, preserving insertion order.
func (s *SQLiteStore) Reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT video_id, name, extension, width, height,
		COALESCE(user_id, ''), extracted_audio, created_at
		FROM videos ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var records []*video.Record
	byID := make(map[string]*video.Record)
	for rows.Next() {
		var (
			rec       video.Record
			extracted int
			created   string
		)
		if err := rows.Scan(&rec.VideoID, &rec.Name, &rec.Extension, &rec.Dimensions.Width,
			&rec.Dimensions.Height, &rec.UserID, &extracted, &created); err != nil {
			return fmt.Errorf("scan video: %w", err)
		}
		rec.ExtractedAudio = extracted != 0
		rec.CreatedAt = parseTime(created)
		rec.Resizes = make(map[string]video.ResizeState)
		records = append(records, &rec)
		byID[rec.VideoID] = &rec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate videos: %w", err)
	}

	resizeRows, err := s.db.QueryContext(ctx, "SELECT video_id, dimensions, processing FROM video_resizes")
	if err != nil {
		return fmt.Errorf("query resizes: %w", err)
	}
	defer resizeRows.Close()
	for resizeRows.Next() {
		var (
			id, key    string
			processing int
		)
		if err := resizeRows.Scan(&id, &key, &processing); err != nil {
			return fmt.Errorf("scan resize: %w", err)
		}
		if rec, ok := byID[id]; ok {
			rec.Resizes[key] = video.ResizeState{Processing: processing != 0}
		}
	}
	if err := resizeRows.Err(); err != nil {
		return fmt.Errorf("iterate resizes: %w", err)
	}

	s.set.replace(records)
	return nil
}

func (s *SQLiteStore) Videos() []*video.Record { return s.set.list() }

func (s *SQLiteStore) FindVideo(id string) (*video.Record, bool) { return s.set.find(id) }

func (s *SQLiteStore) Put(rec *video.Record) { s.set.put(rec) }

func (s *SQLiteStore) Delete(id string) bool { return s.set.delete(id) }

// Save rewrites both tables from the in-memory set in one transaction.
func (s *SQLiteStore) Save(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM video_resizes"); err != nil {
		return fmt.Errorf("clear resizes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM videos"); err != nil {
		return fmt.Errorf("clear videos: %w", err)
	}

	for _, rec := range s.set.list() {
		var userID any
		if rec.UserID != "" {
			userID = rec.UserID
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO videos
			(video_id, name, extension, width, height, user_id, extracted_audio, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.VideoID, rec.Name, rec.Extension, rec.Dimensions.Width, rec.Dimensions.Height,
			userID, boolToInt(rec.ExtractedAudio), rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert video %s: %w", rec.VideoID, err)
		}
		keys := make([]string, 0, len(rec.Resizes))
		for key := range rec.Resizes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO video_resizes (video_id, dimensions, processing) VALUES (?, ?, ?)",
				rec.VideoID, key, boolToInt(rec.Resizes[key].Processing),
			); err != nil {
				return fmt.Errorf("insert resize %s/%s: %w", rec.VideoID, key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Lock(ctx context.Context) (func(), error) { return s.lock.Lock(ctx) }

func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database and releases the lock file handle.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	lockErr := s.lock.Close()
	if s.db == nil {
		return lockErr
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	return lockErr
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
