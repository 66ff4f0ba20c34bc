package cache

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Key identifies a video by content.
type Key struct {
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
}

// KeyFor hashes the video at path. The digest is seeded with the file size
// so truncated copies never collide with the original.
func KeyFor(path string) (Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return Key{}, fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Key{}, fmt.Errorf("stat video: %w", err)
	}
	h := xxhash.NewWithSeed(uint64(info.Size()))

	if _, err := io.Copy(h, f); err != nil {
		return Key{}, fmt.Errorf("read video: %w", err)
	}
	return Key{Digest: fmt.Sprintf("%016x", h.Sum64()), Size: info.Size()}, nil
}
