package spritenav

import (
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/bodgit/spritenav/image"
	"github.com/bodgit/spritenav/palette"
	"github.com/bodgit/spritenav/tile"
	"github.com/cespare/xxhash"
)

// Sprite is one decoded graphic found in a ROM image.
type Sprite struct {
	// Name is an optional label, only ever set from the bookmark catalog
	Name    string
	Offset  int64
	Grid    tile.Grid
	Palette *palette.Palette
	Image   *image.Image
}

// NewPlaceholder returns a sprite with a placeholder image and an empty
// palette, used when the sprite could not be read.
func NewPlaceholder(offset int64, g tile.Grid, paletteOffset int64) *Sprite {
	return &Sprite{
		Offset:  offset,
		Grid:    g,
		Palette: palette.Empty(paletteOffset),
		Image:   image.Placeholder(g),
	}
}

// Length returns the number of bytes of tile data in the sprite.
func (s *Sprite) Length() int {
	return s.Grid.Bytes()
}

// Fingerprint returns a hash of the decoded pixels so identical sprites can
// be spotted regardless of where they were found.
func (s *Sprite) Fingerprint() uint64 {
	return xxhash.Sum64(s.Image.Pix)
}

// Label returns the name, if any, followed by the offset in hex.
func (s *Sprite) Label() string {
	if s.Name != "" {
		return fmt.Sprintf("%s %#x", s.Name, s.Offset)
	}
	return fmt.Sprintf("%#x", s.Offset)
}

func sanitize(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		return r
	default:
		return '_'
	}
}

// Filename returns a filename for the sprite image based on its offset and
// name.
func (s *Sprite) Filename() string {
	name := fmt.Sprintf("%#x", s.Offset)
	if s.Name != "" {
		name += "-" + strings.Map(sanitize, s.Name)
	}
	return name + ".png"
}

// WritePNG writes the sprite image to w as a PNG, enlarged by scale.
func (s *Sprite) WritePNG(w io.Writer, scale int) error {
	if scale > 1 {
		return png.Encode(w, image.Scale(s.Image, scale))
	}
	return png.Encode(w, s.Image)
}
