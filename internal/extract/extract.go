package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"keyframer/internal/fileutil"
	"keyframer/internal/logging"
	"keyframer/internal/services"
)

const stagingDirName = ".staging"

// Runner executes a binary with args.
type Runner func(ctx context.Context, binary string, args []string) error

// Extractor runs ffmpeg to dump frames as images.
type Extractor struct {
	FFmpeg  string
	Ext     string
	Quality int
	Logger  *slog.Logger
	Run     Runner
}

// Result summarises an extraction.
type Result struct {
	Dir     string
	Skipped bool
	Frames  int
	Elapsed time.Duration
}

// New returns an Extractor writing ext images at the given -q:v quality.
func New(ffmpegBin, ext string, quality int, logger *slog.Logger) *Extractor {
	return &Extractor{
		FFmpeg:  ffmpegBin,
		Ext:     strings.TrimPrefix(strings.ToLower(ext), "."),
		Quality: quality,
		Logger:  logging.NewComponentLogger(logger, "extract"),
		Run:     runCommand,
	}
}

// All writes every frame of video into dir. A directory that already holds
// files is reused without running ffmpeg.
func (e *Extractor) All(ctx context.Context, video, dir string) (Result, error) {
	logger := logging.WithContext(ctx, e.logger())
	empty, err := fileutil.DirEmpty(dir)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "extract", "inspect frames dir", dir, err)
	}
	if !empty {
		logging.WarnWithContext(logger, "frames directory not empty; reusing existing frames", "extract_skipped",
			logging.String("dir", dir),
		)
		return Result{Dir: dir, Skipped: true, Frames: countFrames(dir, e.Ext)}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "extract", "create frames dir", dir, err)
	}

	started := time.Now()
	logger.Info("extracting all frames", logging.String("video", video), logging.String("dir", dir))
	if err := e.run(ctx, e.AllArgs(video, dir)); err != nil {
		return Result{}, err
	}
	result := Result{Dir: dir, Frames: countFrames(dir, e.Ext), Elapsed: time.Since(started)}
	logger.Info("frames extracted",
		logging.Int("frames", result.Frames),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// Selected writes only the frames at indexes into dir, named
// "<index+1>.<ext>". It returns the written paths in index order.
func (e *Extractor) Selected(ctx context.Context, video, dir string, indexes []int) ([]string, error) {
	logger := logging.WithContext(ctx, e.logger())
	wanted := normalizeIndexes(indexes)
	if len(wanted) == 0 {
		return nil, nil
	}
	staging := filepath.Join(dir, stagingDirName)
	if err := os.RemoveAll(staging); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "extract", "reset staging dir", staging, err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "extract", "create staging dir", staging, err)
	}
	defer os.RemoveAll(staging)

	logger.Info("extracting selected frames", logging.String("video", video), logging.Int("frames", len(wanted)))
	if err := e.run(ctx, e.SelectedArgs(video, staging, wanted)); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(wanted))
	for n, index := range wanted {
		src := filepath.Join(staging, strconv.Itoa(n+1)+"."+e.Ext)
		dst := filepath.Join(dir, strconv.Itoa(index+1)+"."+e.Ext)
		if err := os.Rename(src, dst); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "extract", "collect frame", fmt.Sprintf("frame %d", index), err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// AllArgs returns the ffmpeg arguments used by All.
func (e *Extractor) AllArgs(video, dir string) []string {
	return ffmpeg.Input(video).
		Output(e.pattern(dir), ffmpeg.KwArgs{"q:v": e.quality()}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		GetArgs()
}

// SelectedArgs returns the ffmpeg arguments used by Selected. indexes must be
// sorted and unique.
func (e *Extractor) SelectedArgs(video, dir string, indexes []int) []string {
	return ffmpeg.Input(video).
		Output(e.pattern(dir), ffmpeg.KwArgs{
			"vf":    selectFilter(indexes),
			"vsync": "0",
			"q:v":   e.quality(),
		}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		GetArgs()
}

func (e *Extractor) pattern(dir string) string {
	return filepath.Join(dir, "%d."+e.Ext)
}

func (e *Extractor) quality() int {
	if e.Quality <= 0 {
		return 1
	}
	return e.Quality
}

func (e *Extractor) run(ctx context.Context, args []string) error {
	run := e.Run
	if run == nil {
		run = runCommand
	}
	bin := strings.TrimSpace(e.FFmpeg)
	if bin == "" {
		bin = "ffmpeg"
	}
	if err := run(ctx, bin, args); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "extract", "run ffmpeg", "", err)
	}
	return nil
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

// selectFilter builds select='eq(n\,a)+eq(n\,b)...' without shell quoting.
func selectFilter(indexes []int) string {
	terms := make([]string, len(indexes))
	for i, index := range indexes {
		terms[i] = `eq(n\,` + strconv.Itoa(index) + `)`
	}
	return "select=" + strings.Join(terms, "+")
}

func normalizeIndexes(indexes []int) []int {
	out := make([]int, 0, len(indexes))
	for _, index := range indexes {
		if index >= 0 {
			out = append(out, index)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func countFrames(dir, ext string) int {
	matches, err := filepath.Glob(filepath.Join(dir, "*."+ext))
	if err != nil {
		return 0
	}
	return len(matches)
}

func runCommand(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
