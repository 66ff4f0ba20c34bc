package frames

import (
	"image"
	"math"
	"sort"
)

// FeatureParams configures the Shi-Tomasi corner detector.
type FeatureParams struct {
	MaxCorners   int
	QualityLevel float64
	MinDistance  float64
	BlockSize    int
}

// DefaultFeatureParams are the detector settings used for motion scoring.
var DefaultFeatureParams = FeatureParams{
	MaxCorners:   100,
	QualityLevel: 0.3,
	MinDistance:  7,
	BlockSize:    7,
}

type corner struct {
	x, y     int
	response float64
}

// DetectFeatures finds up to MaxCorners strong corners in gray. A pixel
// qualifies when its minimum structure-tensor eigenvalue is above
// QualityLevel times the strongest response and is a 3×3 local maximum.
// Corners are accepted strongest first and must be at least MinDistance
// apart. It returns nil when no corner qualifies.
func DetectFeatures(gray *image.Gray, params FeatureParams) []Point {
	if gray == nil {
		return nil
	}
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w < 3 || h < 3 || params.MaxCorners <= 0 {
		return nil
	}

	response := minEigenResponse(gray, w, h, max(params.BlockSize, 1))

	var best float64
	for _, v := range response {
		best = max(best, v)
	}
	if best <= 0 {
		return nil
	}
	threshold := best * params.QualityLevel

	var candidates []corner
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := response[y*w+x]
			if v <= threshold || !isLocalMax(response, w, x, y) {
				continue
			}
			candidates = append(candidates, corner{x: x, y: y, response: v})
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].response > candidates[j].response
	})

	minDist2 := params.MinDistance * params.MinDistance
	var points []Point
	for _, c := range candidates {
		p := Point{X: float64(c.x), Y: float64(c.y)}
		if tooClose(points, p, minDist2) {
			continue
		}
		points = append(points, p)
		if len(points) == params.MaxCorners {
			break
		}
	}
	return points
}

func tooClose(points []Point, p Point, minDist2 float64) bool {
	for _, q := range points {
		dx, dy := p.X-q.X, p.Y-q.Y
		if dx*dx+dy*dy < minDist2 {
			return true
		}
	}
	return false
}

func isLocalMax(response []float64, w, x, y int) bool {
	v := response[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		row := (y + dy) * w
		for dx := -1; dx <= 1; dx++ {
			if response[row+x+dx] > v {
				return false
			}
		}
	}
	return true
}

// minEigenResponse returns the smaller eigenvalue of the gradient covariance
// matrix summed over a block around every pixel.
func minEigenResponse(gray *image.Gray, w, h, block int) []float64 {
	ixx := make([]float64, w*h)
	iyy := make([]float64, w*h)
	ixy := make([]float64, w*h)

	at := func(x, y int) float64 {
		return float64(gray.Pix[reflect101(y, h)*gray.Stride+reflect101(x, w)])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Sobel 3×3
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			i := y*w + x
			ixx[i] = gx * gx
			iyy[i] = gy * gy
			ixy[i] = gx * gy
		}
	}

	sxx := boxSum(ixx, w, h, block)
	syy := boxSum(iyy, w, h, block)
	sxy := boxSum(ixy, w, h, block)

	out := make([]float64, w*h)
	for i := range out {
		a, b, c := sxx[i], sxy[i], syy[i]
		half := (a - c) / 2
		out[i] = (a+c)/2 - math.Sqrt(half*half+b*b)
	}
	return out
}

// boxSum sums src over a block×block window centred on each pixel, with
// reflected borders.
func boxSum(src []float64, w, h, block int) []float64 {
	anchor := block / 2
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var s float64
			for k := 0; k < block; k++ {
				s += row[reflect101(x-anchor+k, w)]
			}
			tmp[y*w+x] = s
		}
	}
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for k := 0; k < block; k++ {
				s += tmp[reflect101(y-anchor+k, h)*w+x]
			}
			out[y*w+x] = s
		}
	}
	return out
}

// reflect101 maps i into [0, n) mirroring about the edge pixels (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
