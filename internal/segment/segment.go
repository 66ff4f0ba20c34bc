// Package segment finds shot boundaries from the video's intra-coded frames.
package segment

import (
	"context"
	"log/slog"

	"keyframer/internal/logging"
	"keyframer/internal/media/ffprobe"
	"keyframer/internal/services"
)

// IFrameMarker is the picture type that starts a shot.
const IFrameMarker = "I"

// Scan is the outcome of probing a video's picture types.
type Scan struct {
	Boundaries []int
	// Frames is the number of decoded frames ffprobe reported.
	Frames int
}

// ScanVideo reads the picture types of the first video stream and returns the
// I-frame indexes in decode order along with the frame count.
func ScanVideo(ctx context.Context, ffprobeBin, video string, logger *slog.Logger) (Scan, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "segment"))

	types, err := ffprobe.PictureTypes(ctx, ffprobeBin, video)
	if err != nil {
		return Scan{}, services.Wrap(services.ErrExternalTool, "segment", "read picture types", video, err)
	}
	scan := Scan{Boundaries: Boundaries(types), Frames: len(types)}
	logger.Info("shot boundaries detected",
		logging.Int("frames", scan.Frames),
		logging.Int("iframes", len(scan.Boundaries)),
	)
	return scan, nil
}

// Detect returns the 0-based indexes of the I-frames in the first video
// stream, in decode order.
func Detect(ctx context.Context, ffprobeBin, video string, logger *slog.Logger) ([]int, error) {
	scan, err := ScanVideo(ctx, ffprobeBin, video, logger)
	if err != nil {
		return nil, err
	}
	return scan.Boundaries, nil
}

// Boundaries returns the positions in types equal to IFrameMarker.
func Boundaries(types []string) []int {
	boundaries := make([]int, 0, len(types)/10+1)
	for i, t := range types {
		if t == IFrameMarker {
			boundaries = append(boundaries, i)
		}
	}
	return boundaries
}
