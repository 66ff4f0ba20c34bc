package keyframe

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"keyframer/internal/frames"
	"keyframer/internal/logging"
	"keyframer/internal/services"
	"keyframer/internal/similarity"
)

// FrameSource loads decoded frames by 0-based index. frames.Dir implements it.
type FrameSource interface {
	Load(index int, withFeatures bool) (frames.Decoded, error)
}

// Selector runs a keyframe method over a boundary list.
type Selector struct {
	Source FrameSource
	// Motion scores frame pairs for the flow method. Nil uses StillnessScorer
	// with similarity.DefaultFlowParams.
	Motion MotionScorer
	// Workers bounds concurrent shot scans. Zero uses GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// NewSelector returns a Selector reading frames from src.
func NewSelector(src FrameSource, workers int, logger *slog.Logger) *Selector {
	return &Selector{
		Source:  src,
		Workers: workers,
		Logger:  logging.NewComponentLogger(logger, "keyframe"),
	}
}

// Select returns one keyframe index per shot, in shot order. The iframes
// method returns a copy of boundaries. Any frame load failure aborts the run
// and no partial result is returned.
func (s *Selector) Select(ctx context.Context, method Method, boundaries []int) ([]int, error) {
	method, err := ParseMethod(string(method))
	if err != nil {
		return nil, err
	}
	shots, err := Shots(boundaries)
	if err != nil {
		return nil, err
	}
	if method == MethodIFrames {
		return append([]int{}, boundaries...), nil
	}
	if len(shots) == 0 {
		return []int{}, nil
	}

	ctx = services.WithMethod(ctx, string(method))
	logger := logging.WithContext(ctx, s.logger())
	scan := s.shotFunc(method)
	started := time.Now()

	keyframes := make([]int, len(shots))
	progress := newShotProgress(len(shots), logger)

	workers := s.workers()
	if workers == 1 {
		for i, shot := range shots {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			idx, err := scan(services.WithShot(ctx, i), shot)
			if err != nil {
				return nil, err
			}
			keyframes[i] = idx
			progress.done()
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, shot := range shots {
			g.Go(func() error {
				idx, err := scan(services.WithShot(gctx, i), shot)
				if err != nil {
					return err
				}
				keyframes[i] = idx
				progress.done()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	logger.Info("keyframes selected",
		logging.Int("shots", len(shots)),
		logging.Int("workers", workers),
		logging.Duration("elapsed", time.Since(started)),
	)
	return keyframes, nil
}

func (s *Selector) shotFunc(method Method) func(context.Context, Shot) (int, error) {
	switch method {
	case MethodFlow:
		motion := s.Motion
		if motion == nil {
			motion = StillnessScorer(similarity.DefaultFlowParams)
		}
		return func(ctx context.Context, shot Shot) (int, error) {
			return selectFlow(ctx, s.Source, motion, shot)
		}
	default:
		return func(ctx context.Context, shot Shot) (int, error) {
			return selectColor(ctx, s.Source, shot)
		}
	}
}

func (s *Selector) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return max(runtime.GOMAXPROCS(0), 1)
}

func (s *Selector) logger() *slog.Logger {
	if s.Logger == nil {
		return logging.NewNop()
	}
	return s.Logger
}

type shotProgress struct {
	mu      sync.Mutex
	total   int
	count   int
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func newShotProgress(total int, logger *slog.Logger) *shotProgress {
	return &shotProgress{total: total, sampler: logging.NewProgressSampler(10), logger: logger}
}

func (p *shotProgress) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	percent := float64(p.count) * 100 / float64(p.total)
	if p.sampler.ShouldLog(percent, "select") {
		p.logger.Debug("shot scan progress",
			logging.Int("completed", p.count),
			logging.Int("total", p.total),
			logging.Float64("percent", percent),
		)
	}
}
