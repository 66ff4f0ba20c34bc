package testsupport

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/disintegration/imaging"
)

// SolidImage returns a w×h image filled with c.
func SolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// SquareImage returns a w×h image filled with bg and a size×size square of fg
// whose top-left corner sits at (x0, y0).
func SquareImage(w, h, x0, y0, size int, bg, fg color.NRGBA) *image.NRGBA {
	img := SolidImage(w, h, bg)
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			if image.Pt(x, y).In(img.Rect) {
				img.SetNRGBA(x, y, fg)
			}
		}
	}
	return img
}

// WriteFrame saves img as dir/<index+1>.<ext>, the naming ffmpeg uses for
// extracted frames. The format follows ext.
func WriteFrame(t testing.TB, dir string, index int, ext string, img image.Image) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, strconv.Itoa(index+1)+"."+ext)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save frame %s: %v", path, err)
	}
	return path
}
