package similarity

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"keyframer/internal/frames"
)

const dblEpsilon = 2.220446049250313e-16

// Correlation returns the Pearson correlation of the bins of a and b, in
// [-1, 1]. When either histogram has no variance the result is 1.
//
// Identical histograms score exactly 1.
func Correlation(a, b frames.Histogram) float64 {
	n := float64(len(a))
	ssA := stat.Variance(a[:], nil) * (n - 1)
	ssB := stat.Variance(b[:], nil) * (n - 1)
	if math.Abs(ssA*ssB) <= dblEpsilon {
		return 1
	}
	return stat.Correlation(a[:], b[:], nil)
}
