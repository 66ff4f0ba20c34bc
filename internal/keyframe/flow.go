package keyframe

import (
	"context"
	"math"

	"keyframer/internal/frames"
	"keyframer/internal/similarity"
)

// MotionScorer rates how much cur moved relative to prev. Lower is stiller.
// ok is false when no score can be computed.
type MotionScorer func(prev, cur frames.Decoded) (score float64, ok bool)

// StillnessScorer scores motion with pyramidal Lucas–Kanade tracking of
// prev's corner features.
func StillnessScorer(params similarity.FlowParams) MotionScorer {
	return func(prev, cur frames.Decoded) (float64, bool) {
		if !prev.HasFeatures() {
			return 0, false
		}
		return similarity.Stillness(prev.Gray, prev.Features, cur.Gray, params)
	}
}

// selectFlow returns the frame with the lowest defined motion score against
// its predecessor. The shot start is kept when no score is defined.
func selectFlow(ctx context.Context, src FrameSource, score MotionScorer, shot Shot) (int, error) {
	if shot.Len() == 1 {
		return shot.Start, nil
	}
	prev, err := src.Load(shot.Start, true)
	if err != nil {
		return 0, err
	}
	best, bestScore := shot.Start, math.Inf(1)
	for i := shot.Start + 1; i < shot.End; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		cur, err := src.Load(i, true)
		if err != nil {
			return 0, err
		}
		if motion, ok := score(prev, cur); ok && motion < bestScore {
			best, bestScore = i, motion
		}
		prev = cur
	}
	return best, nil
}
