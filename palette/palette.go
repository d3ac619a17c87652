/*
Package palette implements the Game Boy Advance 16 color palette format.

A palette is 32 bytes; sixteen little-endian 16-bit values, one per color. Each
color is packed as 0BBBBBGGGGGRRRRR with the top bit unused. The 5-bit channels
are widened to 8 bits by multiplying by 8 so the brightest value is 248, not
255.
*/
package palette

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"
)

const (
	// Colors is the number of colors in a palette
	Colors = 16

	// Bytes is the size of an encoded palette
	Bytes = Colors * 2
)

// ErrMalformed is returned when the palette data is not exactly Bytes long
var ErrMalformed = errors.New("palette: malformed palette data")

// RGB is an opaque 24-bit color.
type RGB struct {
	R, G, B uint8
}

// RGBA implements the color.Color interface.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	a = 0xffff
	return
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette is a decoded palette along with the offset it was read from.
type Palette struct {
	Offset int64
	Colors []RGB
}

// Empty returns a palette with no colors, used when there is no data to
// decode.
func Empty(offset int64) *Palette {
	return &Palette{
		Offset: offset,
	}
}

// Len returns the number of colors in the palette, either Colors or zero.
func (p *Palette) Len() int {
	return len(p.Colors)
}

func unpack(c uint16) RGB {
	// Color is packed as 0BBBBBGGGGGRRRRR
	return RGB{
		uint8(c&0x001f) * 8,
		uint8(c&0x03e0>>5) * 8,
		uint8(c&0x7c00>>10) * 8,
	}
}

// Decode decodes the 32 bytes of palette data in b that were read from
// offset. An empty b returns an empty palette.
func Decode(offset int64, b []byte) (*Palette, error) {
	if len(b) == 0 {
		return Empty(offset), nil
	}
	if len(b) != Bytes {
		return nil, ErrMalformed
	}

	p := &Palette{
		Offset: offset,
		Colors: make([]RGB, Colors),
	}
	for i := range p.Colors {
		p.Colors[i] = unpack(binary.LittleEndian.Uint16(b[i*2:]))
	}

	return p, nil
}

// Pack returns c as a packed 15-bit color. Each channel is truncated to its
// upper 5 bits.
func Pack(c color.Color) uint16 {
	r, g, b, _ := c.RGBA()
	return uint16(b>>11)<<10 | uint16(g>>11)<<5 | uint16(r>>11)
}

// Write writes up to Colors colors from p to w as a packed palette. Any unused
// entries are written as black.
func Write(w io.Writer, p color.Palette) error {
	if len(p) > Colors {
		return fmt.Errorf("palette: %d colors, at most %d allowed", len(p), Colors)
	}

	var tmp [Bytes]byte
	for i, c := range p {
		binary.LittleEndian.PutUint16(tmp[i*2:], Pack(c))
	}

	_, err := w.Write(tmp[:])
	return err
}
