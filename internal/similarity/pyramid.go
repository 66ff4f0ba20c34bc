package similarity

import (
	"image"
)

// plane is a float32 single-channel image.
type plane struct {
	w, h int
	pix  []float32
}

func planeFromGray(g *image.Gray) plane {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	p := plane{w: w, h: h, pix: make([]float32, w*h)}
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x, v := range row {
			p.pix[y*w+x] = float32(v)
		}
	}
	return p
}

// at returns the pixel at (x, y) with replicated borders.
func (p plane) at(x, y int) float32 {
	x = min(max(x, 0), p.w-1)
	y = min(max(y, 0), p.h-1)
	return p.pix[y*p.w+x]
}

// pyrDown blurs with the 5-tap binomial kernel [1 4 6 4 1]/16 and drops every
// other row and column.
func pyrDown(src plane) plane {
	dw, dh := (src.w+1)/2, (src.h+1)/2
	tmp := make([]float32, dw*src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < dw; x++ {
			sx := 2 * x
			tmp[y*dw+x] = (src.at(sx-2, y) + 4*src.at(sx-1, y) + 6*src.at(sx, y) + 4*src.at(sx+1, y) + src.at(sx+2, y)) / 16
		}
	}
	row := plane{w: dw, h: src.h, pix: tmp}
	dst := plane{w: dw, h: dh, pix: make([]float32, dw*dh)}
	for y := 0; y < dh; y++ {
		sy := 2 * y
		for x := 0; x < dw; x++ {
			dst.pix[y*dw+x] = (row.at(x, sy-2) + 4*row.at(x, sy-1) + 6*row.at(x, sy) + 4*row.at(x, sy+1) + row.at(x, sy+2)) / 16
		}
	}
	return dst
}

// buildPyramid returns levels 0..maxLevel, stopping early once a level would
// be smaller than the tracking window.
func buildPyramid(base plane, maxLevel, window int) []plane {
	levels := []plane{base}
	for l := 1; l <= maxLevel; l++ {
		prev := levels[l-1]
		if (prev.w+1)/2 < window || (prev.h+1)/2 < window {
			break
		}
		levels = append(levels, pyrDown(prev))
	}
	return levels
}

// scharr returns the x and y derivatives of p using the 3×3 Scharr kernels,
// normalized by 1/32.
func scharr(p plane) (dx, dy plane) {
	dx = plane{w: p.w, h: p.h, pix: make([]float32, len(p.pix))}
	dy = plane{w: p.w, h: p.h, pix: make([]float32, len(p.pix))}
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			gx := 3*(p.at(x+1, y-1)-p.at(x-1, y-1)) + 10*(p.at(x+1, y)-p.at(x-1, y)) + 3*(p.at(x+1, y+1)-p.at(x-1, y+1))
			gy := 3*(p.at(x-1, y+1)-p.at(x-1, y-1)) + 10*(p.at(x, y+1)-p.at(x, y-1)) + 3*(p.at(x+1, y+1)-p.at(x+1, y-1))
			dx.pix[y*p.w+x] = gx / 32
			dy.pix[y*p.w+x] = gy / 32
		}
	}
	return dx, dy
}
