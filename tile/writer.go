package tile

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
)

type encoder struct {
	w io.Writer
}

func (e *encoder) encode(m *image.Paletted) error {
	b := m.Bounds()
	var tmp [Bytes]byte
	for ty := 0; ty < b.Dy()/Height; ty++ {
		for tx := 0; tx < b.Dx()/Width; tx++ {
			for y := 0; y < Height; y++ {
				for x := 0; x < RowBytes; x++ {
					dx := tx*Width + x<<1
					dy := ty*Height + y

					tmp[y*RowBytes+x] = m.ColorIndexAt(dx+1, dy)&0x0f<<4 | m.ColorIndexAt(dx, dy)&0x0f
				}
			}
			if _, err := e.w.Write(tmp[:]); err != nil {
				return err
			}
		}
	}

	return nil
}

// Encode writes the Image m to w as 4 bits per pixel tiles and returns the
// palette the indices refer to. The image is quantized to 16 colors if
// necessary.
func Encode(w io.Writer, m image.Image) (color.Palette, error) {
	b := m.Bounds()
	if b.Empty() || b.Dx()%Width != 0 || b.Dy()%Height != 0 {
		return nil, errors.New("tile: image is wrong size")
	}

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok {
			pm = image.NewPaletted(b, cp)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pm.Set(x, y, cp.Convert(m.At(x, y)))
				}
			}
		}
	}
	if pm == nil || len(pm.Palette) > colorsPerPalette {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colorsPerPalette), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	// Adjust image so that top-left corner is at (0, 0)
	if pm.Rect.Min != (image.Point{}) {
		dup := *pm
		dup.Rect = dup.Rect.Sub(dup.Rect.Min)
		pm = &dup
	}

	e := encoder{w: w}
	if err := e.encode(pm); err != nil {
		return nil, err
	}

	return pm.Palette, nil
}
