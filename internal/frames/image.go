package frames

import (
	"image"

	"github.com/disintegration/imaging"
)

// ComputeHistogram counts pixels of img into 8 bins per RGB channel over the
// full 0–255 range.
func ComputeHistogram(img image.Image) Histogram {
	var hist Histogram
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+bounds.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			bin := int(row[x]>>5)*64 + int(row[x+1]>>5)*8 + int(row[x+2]>>5)
			hist[bin]++
		}
	}
	return hist
}

// ToGray converts img to 8-bit luma using BT.601 weights.
func ToGray(img image.Image) *image.Gray {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+bounds.Dx()*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
		for x := range dst {
			r, g, b := uint32(src[x*4]), uint32(src[x*4+1]), uint32(src[x*4+2])
			dst[x] = uint8((299*r + 587*g + 114*b + 500) / 1000)
		}
	}
	return gray
}
