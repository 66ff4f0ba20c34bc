package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"keyframer/internal/fileutil"
	"keyframer/internal/logging"
	"keyframer/internal/services"
)

// Finalizer copies keyframe images named "<index+1>.<Ext>".
type Finalizer struct {
	Ext    string
	Logger *slog.Logger
}

// New returns a Finalizer for ext images.
func New(ext string, logger *slog.Logger) *Finalizer {
	return &Finalizer{Ext: ext, Logger: logging.NewComponentLogger(logger, "finalize")}
}

// Copy copies each keyframe from framesDir into outputDir, creating it when
// missing. When outputDir already holds files nothing is copied and skipped
// is true.
func (f *Finalizer) Copy(ctx context.Context, framesDir, outputDir string, keyframes []int) (copied []string, skipped bool, err error) {
	logger := logging.WithContext(ctx, f.logger())
	empty, err := fileutil.DirEmpty(outputDir)
	if err != nil {
		return nil, false, services.Wrap(services.ErrExternalTool, "finalize", "inspect output dir", outputDir, err)
	}
	if !empty {
		logging.WarnWithContext(logger, "output directory not empty; keyframes not copied", "output_exists",
			logging.String("dir", outputDir),
		)
		return nil, true, nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, false, services.Wrap(services.ErrExternalTool, "finalize", "create output dir", outputDir, err)
	}

	copied = make([]string, 0, len(keyframes))
	for _, index := range keyframes {
		if err := ctx.Err(); err != nil {
			return copied, false, err
		}
		name := f.fileName(index)
		dst := filepath.Join(outputDir, name)
		if err := fileutil.CopyFileVerified(filepath.Join(framesDir, name), dst); err != nil {
			return copied, false, services.Wrap(services.ErrExternalTool, "finalize", "copy keyframe", fmt.Sprintf("frame %d", index), err)
		}
		copied = append(copied, dst)
	}
	logger.Info("keyframes copied", logging.Int("count", len(copied)), logging.String("dir", outputDir))
	return copied, false, nil
}

// Entries builds manifest entries for keyframe images in dir. Hash failures
// leave PHash empty.
func (f *Finalizer) Entries(ctx context.Context, dir string, keyframes []int) []Entry {
	logger := logging.WithContext(ctx, f.logger())
	entries := make([]Entry, 0, len(keyframes))
	for _, index := range keyframes {
		name := f.fileName(index)
		entry := Entry{Index: index, File: name}
		hash, err := PerceptualHash(filepath.Join(dir, name))
		if err != nil {
			logger.Debug("perceptual hash unavailable", logging.Int("index", index), logging.Error(err))
		} else {
			entry.PHash = hash
		}
		entries = append(entries, entry)
	}
	return entries
}

// RemoveFrames deletes the working frames directory.
func (f *Finalizer) RemoveFrames(ctx context.Context, framesDir string) error {
	if err := os.RemoveAll(framesDir); err != nil {
		return services.Wrap(services.ErrExternalTool, "finalize", "remove frames dir", framesDir, err)
	}
	logging.WithContext(ctx, f.logger()).Info("frames directory removed", logging.String("dir", framesDir))
	return nil
}

func (f *Finalizer) fileName(index int) string {
	return strconv.Itoa(index+1) + "." + f.Ext
}

func (f *Finalizer) logger() *slog.Logger {
	if f.Logger == nil {
		return logging.NewNop()
	}
	return f.Logger
}
