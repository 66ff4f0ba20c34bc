package frames

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
)

const (
	// HistogramBinsPerChannel is the number of bins per RGB channel.
	HistogramBinsPerChannel = 8
	// HistogramSize is the total number of histogram bins.
	HistogramSize = HistogramBinsPerChannel * HistogramBinsPerChannel * HistogramBinsPerChannel
)

// Histogram holds per-bin pixel counts. Bin (r>>5)*64 + (g>>5)*8 + (b>>5).
type Histogram [HistogramSize]float64

// Point is a sub-pixel image coordinate.
type Point struct {
	X float64
	Y float64
}

// Frame is the comparable view of a decoded image. Features is nil when
// absent; a non-nil slice always holds at least one point.
type Frame struct {
	Index     int
	Histogram Histogram
	Features  []Point
}

// HasFeatures reports whether corner features are present.
func (f Frame) HasFeatures() bool {
	return len(f.Features) > 0
}

// Decoded pairs a Frame with the grayscale buffer used for motion scoring.
// Gray is only populated when features were requested.
type Decoded struct {
	Frame
	Gray *image.Gray
}

// ErrFrameLoad marks failures to read or decode a frame image.
var ErrFrameLoad = errors.New("frame load failed")

// LoadError reports which frame could not be loaded.
type LoadError struct {
	Index int
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load frame %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrFrameLoad, e.Err}
}

// MeanHistogram returns the element-wise mean of hists. It returns a zero
// histogram for an empty input.
func MeanHistogram(hists []Histogram) Histogram {
	var mean Histogram
	if len(hists) == 0 {
		return mean
	}
	for i := range hists {
		floats.Add(mean[:], hists[i][:])
	}
	// Divide rather than scale by 1/n so identical inputs come back exactly.
	n := float64(len(hists))
	for bin := range mean {
		mean[bin] /= n
	}
	return mean
}
