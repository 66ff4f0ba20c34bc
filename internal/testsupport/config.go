package testsupport

import (
	"path/filepath"
	"testing"

	"keyframer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = ""
	cfgVal.Cache.Path = filepath.Join(base, "cache", "results.db")
	cfgVal.Extraction.ImageExt = "png"
	cfgVal.Extraction.MinFreeGiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBinaries points ffmpeg and ffprobe at explicit executables.
func WithBinaries(ffmpeg, ffprobe string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Binaries.FFmpeg = ffmpeg
		b.cfg.Binaries.FFprobe = ffprobe
	}
}

// WithMethod sets the default selection method.
func WithMethod(method string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Selection.Method = method
	}
}

// WithCacheDisabled turns off the result cache.
func WithCacheDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = false
	}
}

// WithKeepFrames disables frames directory removal.
func WithKeepFrames() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extraction.RemoveFrames = false
	}
}

// WithMetricsTextfile enables the metrics textfile under the test base dir.
func WithMetricsTextfile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, name)
	}
}
