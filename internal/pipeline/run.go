package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"keyframer/internal/cache"
	"keyframer/internal/deps"
	"keyframer/internal/fileutil"
	"keyframer/internal/finalize"
	"keyframer/internal/frames"
	"keyframer/internal/keyframe"
	"keyframer/internal/logging"
	"keyframer/internal/media/ffprobe"
	"keyframer/internal/preflight"
	"keyframer/internal/segment"
	"keyframer/internal/services"
)

// Stage names used in logs, errors and metrics.
const (
	StageCache    = "cache"
	StageSegment  = "segment"
	StageExtract  = "extract"
	StageSelect   = "select"
	StageFinalize = "finalize"
)

type run struct {
	*Pipeline
	opts      Options
	method    keyframe.Method
	bins      deps.Binaries
	framesDir string
	logger    *slog.Logger
	result    *Result

	store *cache.Store
	key   cache.Key

	// frameCount is the decoded frame count reported by the boundary scan.
	frameCount int
}

func (r *run) execute(ctx context.Context) error {
	store, err := r.openCache(ctx, r.opts)
	if err != nil {
		logging.WarnWithContext(r.logger, "result cache unavailable", "cache_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "boundaries and keyframes are recomputed"),
		)
	}
	r.store = store
	if store != nil {
		defer store.Close()
		if entry, ok := r.lookup(ctx); ok {
			r.result.CacheHit = true
			r.result.Boundaries = entry.Boundaries
			r.result.Keyframes = entry.Keyframes
			return r.publishSelected(ctx)
		}
	}

	var scan segment.Scan
	if err := r.stage(ctx, StageSegment, func(ctx context.Context) error {
		scan, err = segment.ScanVideo(ctx, r.bins.FFprobe, r.result.Video, r.logger)
		return err
	}); err != nil {
		return err
	}
	boundaries := scan.Boundaries
	r.result.Boundaries = boundaries
	r.frameCount = scan.Frames

	if r.method == keyframe.MethodIFrames {
		r.result.Keyframes = append([]int{}, boundaries...)
		if err := r.publishSelected(ctx); err != nil {
			return err
		}
		r.remember(ctx)
		return nil
	}

	if err := r.selectFromFrames(ctx); err != nil {
		return err
	}
	if r.result.FramesReused {
		r.logger.Debug("keyframes from reused frames are not cached", logging.String("frames_dir", r.framesDir))
		return nil
	}
	r.remember(ctx)
	return nil
}

// selectFromFrames extracts every frame, selects keyframes and copies them.
func (r *run) selectFromFrames(ctx context.Context) error {
	r.result.FramesDir = r.framesDir
	lock := flock.New(r.framesDir + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageExtract, "lock frames dir", r.framesDir, err)
	}
	if !locked {
		return services.Wrap(services.ErrValidation, StageExtract, "lock frames dir", "frames directory is in use by another run", nil)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if err := r.stage(ctx, StageExtract, func(ctx context.Context) error {
		results := preflight.RunAll(r.cfg, preflight.Targets{
			FramesDir:      r.framesDir,
			OutputDir:      r.result.OutputDir,
			EstimatedBytes: r.estimateFrameBytes(ctx),
		})
		if err := preflight.Failed(results); err != nil {
			return err
		}
		extracted, err := r.newExtractor(r.bins.FFmpeg, r.logger).All(ctx, r.result.Video, r.framesDir)
		if err != nil {
			return err
		}
		if extracted.Skipped {
			if extracted.Frames != r.frameCount {
				return services.Wrap(services.ErrValidation, StageExtract, "reuse frames dir",
					fmt.Sprintf("%s holds %d frames but the video has %d; empty it or choose another frames directory",
						r.framesDir, extracted.Frames, r.frameCount), nil)
			}
			r.result.FramesReused = true
			return nil
		}
		r.metrics.RecordFrames(extracted.Frames)
		return nil
	}); err != nil {
		return err
	}

	if err := r.stage(ctx, StageSelect, func(ctx context.Context) error {
		src := frames.NewDir(r.framesDir, r.cfg.Extraction.ImageExt)
		workers := r.opts.Workers
		if workers <= 0 {
			workers = r.cfg.Selection.Workers
		}
		selector := keyframe.NewSelector(src, workers, r.logger)
		keyframes, err := selector.Select(ctx, r.method, r.result.Boundaries)
		if err != nil {
			return err
		}
		r.result.Keyframes = keyframes
		r.metrics.RecordSelection(string(r.method), max(len(r.result.Boundaries)-1, 0), len(keyframes))
		return nil
	}); err != nil {
		return err
	}

	return r.stage(ctx, StageFinalize, func(ctx context.Context) error {
		fin := finalize.New(r.cfg.Extraction.ImageExt, r.logger)
		copied, skipped, err := fin.Copy(ctx, r.framesDir, r.result.OutputDir, r.result.Keyframes)
		if err != nil {
			return err
		}
		r.result.Files = copied
		r.result.CopySkipped = skipped
		if !skipped {
			if err := r.writeManifest(ctx, fin); err != nil {
				return err
			}
		}
		if r.cfg.Extraction.RemoveFrames && !r.opts.KeepFrames {
			return fin.RemoveFrames(ctx, r.framesDir)
		}
		return nil
	})
}

// publishSelected extracts only the keyframes straight into the output
// directory.
func (r *run) publishSelected(ctx context.Context) error {
	return r.stage(ctx, StageFinalize, func(ctx context.Context) error {
		fin := finalize.New(r.cfg.Extraction.ImageExt, r.logger)
		empty, err := fileutil.DirEmpty(r.result.OutputDir)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, StageFinalize, "inspect output dir", r.result.OutputDir, err)
		}
		if !empty {
			logging.WarnWithContext(r.logger, "output directory not empty; keyframes not extracted", "output_exists",
				logging.String("dir", r.result.OutputDir),
			)
			r.result.CopySkipped = true
			return nil
		}
		if err := os.MkdirAll(r.result.OutputDir, 0o755); err != nil {
			return services.Wrap(services.ErrExternalTool, StageFinalize, "create output dir", r.result.OutputDir, err)
		}
		files, err := r.newExtractor(r.bins.FFmpeg, r.logger).Selected(ctx, r.result.Video, r.result.OutputDir, r.result.Keyframes)
		if err != nil {
			return err
		}
		r.result.Files = files
		r.metrics.RecordFrames(len(files))
		return r.writeManifest(ctx, fin)
	})
}

func (r *run) writeManifest(ctx context.Context, fin *finalize.Finalizer) error {
	entries := fin.Entries(ctx, r.result.OutputDir, r.result.Keyframes)
	r.result.Entries = entries
	path, err := finalize.WriteManifest(r.result.OutputDir, finalize.Manifest{
		RunID:      r.result.RunID,
		Video:      r.result.Video,
		Method:     r.result.Method,
		Boundaries: nonNil(r.result.Boundaries),
		Keyframes:  entries,
		CreatedAt:  r.now().UTC(),
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageFinalize, "write manifest", r.result.OutputDir, err)
	}
	r.result.Manifest = path
	return nil
}

func (r *run) lookup(ctx context.Context) (cache.Entry, bool) {
	started := time.Now()
	defer r.metrics.ObserveStage(StageCache, started)

	key, err := cache.KeyFor(r.result.Video)
	if err != nil {
		logging.WarnWithContext(r.logger, "unable to hash video for cache", "cache_key_failed", logging.Error(err))
		r.store = nil
		return cache.Entry{}, false
	}
	r.key = key
	entry, ok, err := r.store.Lookup(ctx, key, string(r.method))
	if err != nil {
		logging.WarnWithContext(r.logger, "cache lookup failed", "cache_lookup_failed", logging.Error(err))
		return cache.Entry{}, false
	}
	r.metrics.RecordCache(ok)
	if ok {
		r.logger.Info("cache hit", logging.String("digest", key.Digest), logging.Int("keyframes", len(entry.Keyframes)))
	}
	return entry, ok
}

func (r *run) remember(ctx context.Context) {
	if r.store == nil || r.key.Digest == "" {
		return
	}
	err := r.store.Put(ctx, cache.Entry{
		Key:        r.key,
		Method:     string(r.method),
		VideoPath:  r.result.Video,
		Boundaries: r.result.Boundaries,
		Keyframes:  r.result.Keyframes,
		CreatedAt:  r.now(),
	})
	if err != nil {
		logging.WarnWithContext(r.logger, "failed to store result in cache", "cache_store_failed", logging.Error(err))
	}
}

// estimateFrameBytes predicts the size of a full extraction. It returns 0
// when the video cannot be inspected.
func (r *run) estimateFrameBytes(ctx context.Context) uint64 {
	info, err := ffprobe.Inspect(ctx, r.bins.FFprobe, r.result.Video)
	if err != nil {
		r.logger.Debug("video inspection failed; free space estimate skipped", logging.Error(err))
		return 0
	}
	stream, ok := info.VideoStream()
	if !ok {
		return 0
	}
	pixels := float64(stream.Width) * float64(stream.Height)
	return uint64(float64(info.EstimatedFrames()) * pixels * bytesPerPixel(r.cfg.Extraction.ImageExt))
}

func bytesPerPixel(ext string) float64 {
	switch ext {
	case "png":
		return 2
	case "bmp", "tiff":
		return 3
	case "webp":
		return 0.4
	default:
		return 0.6
	}
}

func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	started := time.Now()
	defer r.metrics.ObserveStage(name, started)
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func nonNil(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}
