package finalize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// ManifestName is the file written next to the copied keyframes.
const ManifestName = "keyframes.json"

// Manifest describes one published keyframe set.
type Manifest struct {
	RunID      string    `json:"run_id"`
	Video      string    `json:"video"`
	Method     string    `json:"method"`
	Boundaries []int     `json:"boundaries"`
	Keyframes  []Entry   `json:"keyframes"`
	CreatedAt  time.Time `json:"created_at"`
}

// Entry is one keyframe image.
type Entry struct {
	Index int    `json:"index"`
	File  string `json:"file"`
	PHash string `json:"phash,omitempty"`
}

// WriteManifest writes m as indented JSON into dir and returns the path.
func WriteManifest(dir string, m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads the manifest stored in dir.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// PerceptualHash returns the goimagehash pHash string of the image at path.
func PerceptualHash(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", err
	}
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", err
	}
	return hash.ToString(), nil
}
