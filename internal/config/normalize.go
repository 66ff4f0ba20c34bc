package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBinaries(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeSelection()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.FramesDir, err = normalizeRelative(c.Paths.FramesDir, defaultFramesDir); err != nil {
		return fmt.Errorf("paths.frames_dir: %w", err)
	}
	if c.Paths.OutputDir, err = normalizeRelative(c.Paths.OutputDir, defaultOutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// normalizeRelative keeps bare names relative so they can later be resolved
// against the video directory.
func normalizeRelative(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	expanded, err := expandHome(value)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}

func (c *Config) normalizeBinaries() error {
	c.Binaries.FFmpeg = strings.TrimSpace(c.Binaries.FFmpeg)
	if value, ok := os.LookupEnv("FFMPEG"); ok && strings.TrimSpace(value) != "" && (c.Binaries.FFmpeg == "" || c.Binaries.FFmpeg == defaultFFmpeg) {
		c.Binaries.FFmpeg = strings.TrimSpace(value)
	}
	if c.Binaries.FFmpeg == "" {
		c.Binaries.FFmpeg = defaultFFmpeg
	}

	c.Binaries.FFprobe = strings.TrimSpace(c.Binaries.FFprobe)
	if value, ok := os.LookupEnv("FFPROBE"); ok && strings.TrimSpace(value) != "" && (c.Binaries.FFprobe == "" || c.Binaries.FFprobe == defaultFFprobe) {
		c.Binaries.FFprobe = strings.TrimSpace(value)
	}
	if c.Binaries.FFprobe == "" {
		c.Binaries.FFprobe = defaultFFprobe
	}

	c.Binaries.Dir = strings.TrimSpace(c.Binaries.Dir)
	if c.Binaries.Dir == "" {
		if value, ok := os.LookupEnv("KEYFRAMER_BIN_DIR"); ok {
			c.Binaries.Dir = strings.TrimSpace(value)
		}
	}

	var err error
	if c.Binaries.Dir, err = expandPath(c.Binaries.Dir); err != nil {
		return fmt.Errorf("binaries.dir: %w", err)
	}
	if c.Binaries.FFmpeg, err = expandBinary(c.Binaries.FFmpeg); err != nil {
		return fmt.Errorf("binaries.ffmpeg: %w", err)
	}
	if c.Binaries.FFprobe, err = expandBinary(c.Binaries.FFprobe); err != nil {
		return fmt.Errorf("binaries.ffprobe: %w", err)
	}
	return nil
}

// expandBinary expands values that look like paths and leaves bare command
// names for PATH lookup.
func expandBinary(value string) (string, error) {
	if strings.HasPrefix(value, "~") || strings.ContainsRune(value, '/') || strings.ContainsRune(value, filepath.Separator) {
		return expandPath(value)
	}
	return value, nil
}

func (c *Config) normalizeExtraction() {
	ext := strings.ToLower(strings.TrimSpace(c.Extraction.ImageExt))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = defaultImageExt
	}
	c.Extraction.ImageExt = ext
	if c.Extraction.Quality == 0 {
		c.Extraction.Quality = defaultQuality
	}
}

func (c *Config) normalizeSelection() {
	c.Selection.Method = strings.ToLower(strings.TrimSpace(c.Selection.Method))
	if c.Selection.Method == "" {
		c.Selection.Method = defaultMethod
	}
}

func (c *Config) normalizeCache() error {
	c.Cache.Path = strings.TrimSpace(c.Cache.Path)
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(c.Paths.CacheDir, defaultCacheFile)
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
