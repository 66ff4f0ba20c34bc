package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"keyframer/internal/cache"
	"keyframer/internal/config"
	"keyframer/internal/deps"
	"keyframer/internal/extract"
	"keyframer/internal/fileutil"
	"keyframer/internal/finalize"
	"keyframer/internal/keyframe"
	"keyframer/internal/logging"
	"keyframer/internal/metrics"
	"keyframer/internal/services"
)

// Options are per-run overrides on top of the configuration.
type Options struct {
	Video  string
	Method string
	// OutputDir and FramesDir override the configured names when set.
	OutputDir string
	FramesDir string
	// KeepFrames keeps the frames directory regardless of configuration.
	KeepFrames bool
	NoCache    bool
	Workers    int
}

// Result describes a completed run. FramesReused is set when an existing
// frames directory was used instead of a fresh extraction; such results are
// not cached.
type Result struct {
	RunID        string           `json:"run_id"`
	Video        string           `json:"video"`
	Method       string           `json:"method"`
	Boundaries   []int            `json:"boundaries"`
	Keyframes    []int            `json:"keyframes"`
	OutputDir    string           `json:"output_dir"`
	FramesDir    string           `json:"frames_dir,omitempty"`
	Files        []string         `json:"files"`
	Entries      []finalize.Entry `json:"entries,omitempty"`
	Manifest     string           `json:"manifest,omitempty"`
	CacheHit     bool             `json:"cache_hit"`
	FramesReused bool             `json:"frames_reused"`
	CopySkipped  bool             `json:"copy_skipped"`
	Elapsed      time.Duration    `json:"elapsed"`
}

// Pipeline runs keyframe extraction for one configuration.
type Pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	newRunID func() string
	now      func() time.Time
}

// New constructs a Pipeline. m may be nil.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		metrics:  m,
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

// Run executes one extraction. An invalid method fails before any external
// tool runs. No output is produced for a failed run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (res Result, err error) {
	started := p.now()
	methodName := opts.Method
	if methodName == "" {
		methodName = p.cfg.Selection.Method
	}
	method, err := keyframe.ParseMethod(methodName)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		p.metrics.RecordRun(string(method), err)
		if werr := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); werr != nil {
			logging.WarnWithContext(p.logger, "failed to write metrics textfile", "metrics_write_failed",
				logging.String("path", p.cfg.Metrics.Textfile), logging.Error(werr))
		}
	}()

	video, err := checkVideo(opts.Video)
	if err != nil {
		return Result{}, err
	}

	runID := p.newRunID()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithMethod(ctx, string(method))
	logger := logging.WithContext(ctx, p.logger)

	bins, err := deps.Resolve(p.cfg)
	if err != nil {
		return Result{}, err
	}

	res = Result{
		RunID:     runID,
		Video:     video,
		Method:    string(method),
		OutputDir: fileutil.ResolveBeside(video, firstNonEmpty(opts.OutputDir, p.cfg.Paths.OutputDir)),
	}
	framesDir := fileutil.ResolveBeside(video, firstNonEmpty(opts.FramesDir, p.cfg.Paths.FramesDir))
	logger.Info("run started",
		logging.String("video", video),
		logging.String("output_dir", res.OutputDir),
		logging.String("ffmpeg", bins.FFmpeg),
		logging.String("ffprobe", bins.FFprobe),
	)

	run := &run{
		Pipeline:  p,
		opts:      opts,
		method:    method,
		bins:      bins,
		framesDir: framesDir,
		logger:    logger,
		result:    &res,
	}
	if err := run.execute(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(logger, "run failed", "run_failed", logging.Error(err))
		}
		return Result{}, err
	}

	res.Elapsed = p.now().Sub(started)
	logger.Info("run completed",
		logging.Ints("keyframes", res.Keyframes),
		logging.Bool("cache_hit", res.CacheHit),
		logging.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func checkVideo(path string) (string, error) {
	if path == "" {
		return "", services.Wrap(services.ErrValidation, "validate", "video", "no video given", nil)
	}
	abs, err := config.ExpandPath(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "validate", "video", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "validate", "video", path, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "validate", "video", fmt.Sprintf("%s is a directory", path), nil)
	}
	return abs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (p *Pipeline) newExtractor(ffmpegBin string, logger *slog.Logger) *extract.Extractor {
	return extract.New(ffmpegBin, p.cfg.Extraction.ImageExt, p.cfg.Extraction.Quality, logger)
}

func (p *Pipeline) openCache(ctx context.Context, opts Options) (*cache.Store, error) {
	if !p.cfg.Cache.Enabled || opts.NoCache {
		return nil, nil
	}
	return cache.Open(ctx, p.cfg.Cache.Path)
}
