package keyframe

import (
	"context"
	"math"

	"keyframer/internal/frames"
	"keyframer/internal/similarity"
)

// selectColor returns the frame whose histogram correlates best with the
// shot's mean histogram. The earliest frame wins ties.
func selectColor(ctx context.Context, src FrameSource, shot Shot) (int, error) {
	if shot.Len() == 1 {
		return shot.Start, nil
	}
	hists := make([]frames.Histogram, 0, shot.Len())
	for i := shot.Start; i < shot.End; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		decoded, err := src.Load(i, false)
		if err != nil {
			return 0, err
		}
		hists = append(hists, decoded.Histogram)
	}

	mean := frames.MeanHistogram(hists)
	best, bestScore := shot.Start, math.Inf(-1)
	for offset := range hists {
		score := similarity.Correlation(hists[offset], mean)
		if score > bestScore {
			best, bestScore = shot.Start+offset, score
		}
	}
	return best, nil
}
