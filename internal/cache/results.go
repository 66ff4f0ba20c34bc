package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// Entry is one cached selection.
type Entry struct {
	Key        Key       `json:"key"`
	Method     string    `json:"method"`
	VideoPath  string    `json:"video_path"`
	Boundaries []int     `json:"boundaries"`
	Keyframes  []int     `json:"keyframes"`
	CreatedAt  time.Time `json:"created_at"`
}

type row struct {
	Digest     string `db:"digest"`
	Size       int64  `db:"size"`
	Method     string `db:"method"`
	VideoPath  string `db:"video_path"`
	Boundaries string `db:"boundaries"`
	Keyframes  string `db:"keyframes"`
	CreatedAt  string `db:"created_at"`
}

const selectColumns = "digest, size, method, video_path, boundaries, keyframes, created_at"

// Lookup returns the entry for key and method when present.
func (s *Store) Lookup(ctx context.Context, key Key, method string) (Entry, bool, error) {
	var r row
	err := retryOnBusy(ctx, func() error {
		return sqlscan.Get(ctx, s.db, &r,
			"SELECT "+selectColumns+" FROM results WHERE digest = ? AND size = ? AND method = ?",
			key.Digest, key.Size, method)
	})
	if err != nil {
		if sqlscan.NotFound(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("lookup cached result: %w", err)
	}
	entry, err := r.entry()
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// Put stores or replaces the entry for its key and method.
func (s *Store) Put(ctx context.Context, e Entry) error {
	boundaries, err := json.Marshal(nonNil(e.Boundaries))
	if err != nil {
		return fmt.Errorf("encode boundaries: %w", err)
	}
	keyframes, err := json.Marshal(nonNil(e.Keyframes))
	if err != nil {
		return fmt.Errorf("encode keyframes: %w", err)
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO results (digest, size, method, video_path, boundaries, keyframes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Key.Digest, e.Key.Size, e.Method, e.VideoPath, string(boundaries), string(keyframes),
		created.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store cached result: %w", err)
	}
	return nil
}

// List returns all entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var rows []row
	if err := retryOnBusy(ctx, func() error {
		rows = rows[:0]
		return sqlscan.Select(ctx, s.db, &rows, "SELECT "+selectColumns+" FROM results ORDER BY created_at DESC, video_path")
	}); err != nil {
		return nil, fmt.Errorf("list cached results: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entry, err := r.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM results")
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return n, nil
}

func (r row) entry() (Entry, error) {
	e := Entry{
		Key:       Key{Digest: r.Digest, Size: r.Size},
		Method:    r.Method,
		VideoPath: r.VideoPath,
	}
	if err := json.Unmarshal([]byte(r.Boundaries), &e.Boundaries); err != nil {
		return Entry{}, fmt.Errorf("decode cached boundaries: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Keyframes), &e.Keyframes); err != nil {
		return Entry{}, fmt.Errorf("decode cached keyframes: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("decode cached timestamp: %w", err)
	}
	e.CreatedAt = created
	return e, nil
}

func nonNil(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}
