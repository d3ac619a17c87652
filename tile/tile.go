/*
Package tile implements the Game Boy Advance 4 bits per pixel tile format.

A tile is 8 by 8 pixels stored as 32 bytes; eight rows of four bytes. Each
byte holds two pixels with the left pixel in the lower nibble and the right
pixel in the upper nibble. Pixels are indices into a 16 color palette.

Larger graphics are a Grid of tiles stored one after another, left to right
and then top to bottom.
*/
package tile

import (
	"errors"
	"fmt"
	"image"
)

const (
	// Width is the width of a tile in pixels
	Width = 8

	// Height is the height of a tile in pixels
	Height = Width

	// RowBytes is the size of one row of a tile
	RowBytes = Width >> 1

	// Bytes is the size of one tile
	Bytes = RowBytes * Height

	// MaxBytes is the largest amount of tile data a Grid can hold, the
	// size of the largest cartridge
	MaxBytes = 32 << 20

	colorsPerPalette = 16
)

var (
	// ErrTruncatedTileData is returned when there are fewer bytes than
	// the tiles require
	ErrTruncatedTileData = errors.New("tile: truncated tile data")

	// ErrInvalidGrid is returned for a grid that is not at least one tile
	// in each direction, or is larger than MaxBytes
	ErrInvalidGrid = errors.New("tile: invalid grid size")
)

func upperNibble(b byte) byte {
	return b >> 4
}

func lowerNibble(b byte) byte {
	return b & 0x0f
}

// Tile holds the palette index of each pixel, indexed by row then column.
type Tile [Height][Width]uint8

// Unpack decodes exactly Bytes bytes of b into a tile.
func Unpack(b []byte) (Tile, error) {
	var t Tile
	if len(b) != Bytes {
		return t, ErrTruncatedTileData
	}

	for y := 0; y < Height; y++ {
		for x := 0; x < RowBytes; x++ {
			v := b[y*RowBytes+x]
			t[y][x<<1+0] = lowerNibble(v)
			t[y][x<<1+1] = upperNibble(v)
		}
	}

	return t, nil
}

// Grid is the size of some graphics measured in tiles.
type Grid struct {
	Wide, High int
}

// Valid reports whether g is at least one tile in each direction and its
// tile data fits in MaxBytes.
func (g Grid) Valid() bool {
	if g.Wide <= 0 || g.High <= 0 {
		return false
	}
	return g.Wide <= MaxBytes/Bytes/g.High
}

// Tiles returns the number of tiles in g.
func (g Grid) Tiles() int {
	return g.Wide * g.High
}

// Bytes returns the number of bytes of tile data in g.
func (g Grid) Bytes() int {
	return g.Tiles() * Bytes
}

// Bounds returns the size of g in pixels. An invalid grid has empty bounds.
func (g Grid) Bounds() image.Rectangle {
	if !g.Valid() {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, g.Wide*Width, g.High*Height)
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Wide, g.High)
}
