package similarity

import (
	"image"
	"math"

	"keyframer/internal/frames"
)

// FlowParams configures pyramidal Lucas–Kanade tracking.
type FlowParams struct {
	WindowSize      int
	MaxLevel        int
	MaxIterations   int
	Epsilon         float64
	MinEigThreshold float64
}

// DefaultFlowParams are the tracker settings used for stillness scoring.
var DefaultFlowParams = FlowParams{
	WindowSize:      15,
	MaxLevel:        2,
	MaxIterations:   10,
	Epsilon:         0.03,
	MinEigThreshold: 0.1,
}

// minDeterminant rejects windows whose gradient matrix is numerically singular.
const minDeterminant = 0.125

// Stillness tracks features from prev into cur and returns the mean tracking
// error over the points that were tracked. The error of a point is the mean
// absolute intensity difference across its window after alignment, so lower
// values mean less motion.
//
// ok is false when the score is undefined: prev has no features, the images
// differ in size, or no point could be tracked.
func Stillness(prev *image.Gray, features []frames.Point, cur *image.Gray, params FlowParams) (score float64, ok bool) {
	if len(features) == 0 || prev == nil || cur == nil {
		return 0, false
	}
	if prev.Bounds().Size() != cur.Bounds().Size() {
		return 0, false
	}
	errs, status := track(planeFromGray(prev), planeFromGray(cur), features, params)

	var sum float64
	var n int
	for i, tracked := range status {
		if !tracked || math.IsNaN(errs[i]) {
			continue
		}
		sum += errs[i]
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

type vec struct{ x, y float64 }

func track(prev, cur plane, features []frames.Point, params FlowParams) ([]float64, []bool) {
	win := max(params.WindowSize, 3)
	prevPyr := buildPyramid(prev, max(params.MaxLevel, 0), win)
	curPyr := buildPyramid(cur, len(prevPyr)-1, win)
	levels := min(len(prevPyr), len(curPyr))

	derivs := make([][2]plane, levels)
	for l := 0; l < levels; l++ {
		dx, dy := scharr(prevPyr[l])
		derivs[l] = [2]plane{dx, dy}
	}

	errs := make([]float64, len(features))
	status := make([]bool, len(features))
	for i, f := range features {
		errs[i], status[i] = trackPoint(prevPyr[:levels], curPyr[:levels], derivs, vec{f.X, f.Y}, win, params)
	}
	return errs, status
}

func trackPoint(prevPyr, curPyr []plane, derivs [][2]plane, pt vec, win int, params FlowParams) (float64, bool) {
	half := float64(win-1) / 2
	area := float64(win * win)
	eps2 := params.Epsilon * params.Epsilon

	var next vec
	for level := len(prevPyr) - 1; level >= 0; level-- {
		scale := 1 / float64(int(1)<<level)
		p := vec{pt.x * scale, pt.y * scale}
		if level == len(prevPyr)-1 {
			next = p
		} else {
			next = vec{next.x * 2, next.y * 2}
		}

		I, J := prevPyr[level], curPyr[level]
		Ix, Iy := derivs[level][0], derivs[level][1]

		origin := vec{p.x - half, p.y - half}
		if outside(origin, I, win) {
			if level == 0 {
				return 0, false
			}
			continue
		}

		patch := make([]float32, win*win)
		gx := make([]float32, win*win)
		gy := make([]float32, win*win)
		var a11, a12, a22 float64
		for y := 0; y < win; y++ {
			for x := 0; x < win; x++ {
				k := y*win + x
				sx, sy := origin.x+float64(x), origin.y+float64(y)
				patch[k] = bilinear(I, sx, sy)
				gx[k] = bilinear(Ix, sx, sy)
				gy[k] = bilinear(Iy, sx, sy)
				a11 += float64(gx[k]) * float64(gx[k])
				a12 += float64(gx[k]) * float64(gy[k])
				a22 += float64(gy[k]) * float64(gy[k])
			}
		}

		det := a11*a22 - a12*a12
		minEig := (a22 + a11 - math.Sqrt((a11-a22)*(a11-a22)+4*a12*a12)) / (2 * area)
		if minEig < params.MinEigThreshold || det < minDeterminant {
			if level == 0 {
				return 0, false
			}
			continue
		}
		invDet := 1 / det

		var prevDelta vec
		for iter := 0; iter < params.MaxIterations; iter++ {
			nextOrigin := vec{next.x - half, next.y - half}
			if outside(nextOrigin, J, win) {
				if level == 0 {
					return 0, false
				}
				break
			}
			var b1, b2 float64
			for y := 0; y < win; y++ {
				for x := 0; x < win; x++ {
					k := y*win + x
					diff := float64(bilinear(J, nextOrigin.x+float64(x), nextOrigin.y+float64(y)) - patch[k])
					b1 += diff * float64(gx[k])
					b2 += diff * float64(gy[k])
				}
			}
			delta := vec{(a12*b2 - a22*b1) * invDet, (a12*b1 - a11*b2) * invDet}
			next.x += delta.x
			next.y += delta.y

			if delta.x*delta.x+delta.y*delta.y <= eps2 {
				break
			}
			if iter > 0 && math.Abs(delta.x+prevDelta.x) < 0.01 && math.Abs(delta.y+prevDelta.y) < 0.01 {
				next.x -= delta.x * 0.5
				next.y -= delta.y * 0.5
				break
			}
			prevDelta = delta
		}
	}

	I, J := prevPyr[0], curPyr[0]
	origin := vec{pt.x - half, pt.y - half}
	nextOrigin := vec{next.x - half, next.y - half}
	if outside(nextOrigin, J, win) {
		return 0, false
	}
	var sum float64
	for y := 0; y < win; y++ {
		for x := 0; x < win; x++ {
			a := bilinear(I, origin.x+float64(x), origin.y+float64(y))
			b := bilinear(J, nextOrigin.x+float64(x), nextOrigin.y+float64(y))
			sum += math.Abs(float64(b - a))
		}
	}
	return sum / area, true
}

// outside reports whether a window anchored at origin lies entirely beyond
// the image, allowing it to overhang the border by up to one window.
func outside(origin vec, p plane, win int) bool {
	x, y := int(math.Floor(origin.x)), int(math.Floor(origin.y))
	return x < -win || x >= p.w || y < -win || y >= p.h
}

func bilinear(p plane, x, y float64) float32 {
	x0, y0 := math.Floor(x), math.Floor(y)
	ax, ay := float32(x-x0), float32(y-y0)
	ix, iy := int(x0), int(y0)
	v00 := p.at(ix, iy)
	v10 := p.at(ix+1, iy)
	v01 := p.at(ix, iy+1)
	v11 := p.at(ix+1, iy+1)
	return (1-ay)*((1-ax)*v00+ax*v10) + ay*((1-ax)*v01+ax*v11)
}
