package image

import (
	"image"

	"golang.org/x/image/draw"
)

// Scale returns a copy of m enlarged by factor in each direction using
// nearest neighbor sampling so that individual pixels stay sharp. A factor
// less than one is treated as one.
func Scale(m image.Image, factor int) *image.RGBA {
	if factor < 1 {
		factor = 1
	}

	b := m.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)

	return dst
}
