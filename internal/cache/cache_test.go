package cache

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "results.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestKeyForDependsOnContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	c := filepath.Join(dir, "c.mp4")
	for path, body := range map[string]string{a: "same bytes", b: "same bytes", c: "other bytes"} {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	ka, err := KeyFor(a)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	kb, _ := KeyFor(b)
	kc, _ := KeyFor(c)
	if ka != kb {
		t.Fatalf("expected equal keys for equal content: %+v vs %+v", ka, kb)
	}
	if ka == kc {
		t.Fatal("expected different keys for different content")
	}
	if ka.Size != int64(len("same bytes")) || len(ka.Digest) != 16 {
		t.Fatalf("unexpected key %+v", ka)
	}
	if _, err := KeyFor(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing video")
	}
}

func TestKeyForHashesWholeLargeFile(t *testing.T) {
	body := bytes.Repeat([]byte("keyframer"), 40_000)
	path := filepath.Join(t.TempDir(), "large.mp4")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	key, err := KeyFor(path)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	h := xxhash.NewWithSeed(uint64(len(body)))
	_, _ = h.Write(body)
	if want := fmt.Sprintf("%016x", h.Sum64()); key.Digest != want {
		t.Fatalf("digest = %s, want %s", key.Digest, want)
	}

	body[len(body)-1] ^= 0xff
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err := KeyFor(path)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	if changed.Digest == key.Digest {
		t.Fatal("expected a change in the final byte to change the digest")
	}
}

func TestPutLookupListClear(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	key := Key{Digest: "00000000deadbeef", Size: 42}

	if _, ok, err := store.Lookup(ctx, key, "color"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	entry := Entry{
		Key:        key,
		Method:     "color",
		VideoPath:  "/videos/clip.mp4",
		Boundaries: []int{0, 10, 25},
		Keyframes:  []int{4, 17},
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, Entry{Key: key, Method: "flow", VideoPath: "/videos/clip.mp4", CreatedAt: entry.CreatedAt.Add(time.Hour)}); err != nil {
		t.Fatalf("Put flow: %v", err)
	}

	got, ok, err := store.Lookup(ctx, key, "color")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, entry) {
		t.Fatalf("entry mismatch:\n got %+v\nwant %+v", got, entry)
	}
	if _, ok, _ := store.Lookup(ctx, Key{Digest: key.Digest, Size: 43}, "color"); ok {
		t.Fatal("expected size mismatch to miss")
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Method != "flow" {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if entries[0].Keyframes == nil || len(entries[0].Keyframes) != 0 {
		t.Fatalf("expected empty keyframes for flow entry, got %#v", entries[0].Keyframes)
	}

	n, err := store.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 rows cleared, got %d (%v)", n, err)
	}
	if entries, _ := store.List(ctx); len(entries) != 0 {
		t.Fatalf("expected empty cache, got %v", entries)
	}
}

func TestPutReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	key := Key{Digest: "abc", Size: 1}
	for _, kf := range [][]int{{1}, {2}} {
		if err := store.Put(ctx, Entry{Key: key, Method: "flow", Boundaries: []int{0, 5}, Keyframes: kf}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	got, ok, err := store.Lookup(ctx, key, "flow")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got.Keyframes, []int{2}) {
		t.Fatalf("expected replaced keyframes, got %v", got.Keyframes)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = db.Close()

	_, err = Open(context.Background(), path)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if isSQLiteBusy(nil) {
		t.Fatal("nil is not busy")
	}
	if !isSQLiteBusy(errors.New("database is locked")) {
		t.Fatal("expected locked message to count as busy")
	}
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("SQLITE_BUSY")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after 3 calls, got %d (%v)", calls, err)
	}
}
