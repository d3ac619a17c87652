/*
Package image assembles Game Boy Advance tiles into RGB images.

Tile data is a sequence of 32 byte tiles stored row-major across the whole
image; the first Wide tiles are the top row of tiles, the next Wide tiles the
row below and so on. Each pixel index is resolved through a 16 color palette
so the result is a plain RGB image, 8 pixels per tile in each direction.

When no tile data is available a placeholder image of the same size is
produced instead, filled with a single gray.
*/
package image

import (
	"image"
	"image/color"

	"github.com/bodgit/spritenav/palette"
	"github.com/bodgit/spritenav/tile"
)

const bytesPerPixel = 3

// PlaceholderColor is the color of every pixel in a placeholder image
var PlaceholderColor = palette.RGB{R: 0xaa, G: 0xaa, B: 0xaa}

var rgbModel = color.ModelFunc(func(c color.Color) color.Color {
	if _, ok := c.(palette.RGB); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return palette.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
})

// Image is an in-memory image whose At method returns palette.RGB values.
// Every pixel is opaque.
type Image struct {
	// Pix holds the image's pixels, in R, G, B order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix    []uint8
	Stride int
	Rect   image.Rectangle

	// Placeholder is set when the image was not decoded from tile data
	Placeholder bool
}

func newImage(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]uint8, bytesPerPixel*r.Dx()*r.Dy()),
		Stride: bytesPerPixel * r.Dx(),
		Rect:   r,
	}
}

// ColorModel implements the image.Image interface.
func (m *Image) ColorModel() color.Model { return rgbModel }

// Bounds implements the image.Image interface.
func (m *Image) Bounds() image.Rectangle { return m.Rect }

// At implements the image.Image interface.
func (m *Image) At(x, y int) color.Color {
	return m.RGBAt(x, y)
}

// RGBAt returns the color of the pixel at (x, y).
func (m *Image) RGBAt(x, y int) palette.RGB {
	if !image.Pt(x, y).In(m.Rect) {
		return palette.RGB{}
	}
	i := m.PixOffset(x, y)
	s := m.Pix[i : i+bytesPerPixel : i+bytesPerPixel]
	return palette.RGB{R: s[0], G: s[1], B: s[2]}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (m *Image) PixOffset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*bytesPerPixel
}

// Opaque reports whether the image is fully opaque, which is always true.
func (m *Image) Opaque() bool {
	return true
}

// Placeholder returns an image the size of g with every pixel set to
// PlaceholderColor.
func Placeholder(g tile.Grid) *Image {
	m := newImage(g.Bounds())
	m.Placeholder = true
	for i := 0; i < len(m.Pix); i += bytesPerPixel {
		m.Pix[i+0] = PlaceholderColor.R
		m.Pix[i+1] = PlaceholderColor.G
		m.Pix[i+2] = PlaceholderColor.B
	}
	return m
}
