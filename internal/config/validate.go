package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBinaries(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.FramesDir) == "" {
		return errors.New("paths.frames_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.FramesDir == c.Paths.OutputDir {
		return errors.New("paths.frames_dir and paths.output_dir must differ")
	}
	return nil
}

func (c *Config) validateBinaries() error {
	if c.Binaries.FFmpeg == "" {
		return errors.New("binaries.ffmpeg must be set")
	}
	if c.Binaries.FFprobe == "" {
		return errors.New("binaries.ffprobe must be set")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if !slices.Contains(ValidImageExts, c.Extraction.ImageExt) {
		return fmt.Errorf("extraction.image_ext must be one of %s", strings.Join(ValidImageExts, ", "))
	}
	if c.Extraction.Quality < 1 || c.Extraction.Quality > 31 {
		return errors.New("extraction.quality must be between 1 and 31")
	}
	if c.Extraction.MinFreeGiB < 0 {
		return errors.New("extraction.min_free_gib must be >= 0")
	}
	return nil
}

func (c *Config) validateSelection() error {
	if !slices.Contains(ValidMethods, c.Selection.Method) {
		return fmt.Errorf("selection.method must be one of %s", strings.Join(ValidMethods, ", "))
	}
	if c.Selection.Workers < 0 {
		return errors.New("selection.workers must be >= 0")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set when cache.enabled is true")
	}
	return nil
}
