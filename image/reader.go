package image

import (
	"io"

	"github.com/bodgit/spritenav/palette"
	"github.com/bodgit/spritenav/tile"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	grid    tile.Grid
	palette *palette.Palette

	image *Image
	tiles []tile.Tile
}

func (d *decoder) unpackTiles(data []byte) error {
	d.tiles = make([]tile.Tile, d.grid.Tiles())
	for i := range d.tiles {
		t, err := tile.Unpack(data[i*tile.Bytes : (i+1)*tile.Bytes])
		if err != nil {
			return err
		}
		d.tiles[i] = t
	}
	return nil
}

func (d *decoder) decode(data []byte) error {
	if err := d.unpackTiles(data); err != nil {
		return err
	}

	d.image = newImage(d.grid.Bounds())

	// Every row of pixels crosses each tile in the row of tiles so the
	// pixels come out in raster order
	i := 0
	for ty := 0; ty < d.grid.High; ty++ {
		for y := 0; y < tile.Height; y++ {
			for tx := 0; tx < d.grid.Wide; tx++ {
				for _, c := range d.tiles[ty*d.grid.Wide+tx][y] {
					rgb := d.palette.Colors[c]
					d.image.Pix[i+0] = rgb.R
					d.image.Pix[i+1] = rgb.G
					d.image.Pix[i+2] = rgb.B
					i += bytesPerPixel
				}
			}
		}
	}

	return nil
}

// Assemble decodes the tile data in data as an image the size of g using the
// colors in p. If data is empty a placeholder image is returned. Otherwise
// data must be exactly g.Bytes() long.
func Assemble(data []byte, g tile.Grid, p *palette.Palette) (*Image, error) {
	if !g.Valid() {
		return nil, tile.ErrInvalidGrid
	}

	if len(data) == 0 {
		return Placeholder(g), nil
	}

	if len(data) != g.Bytes() {
		return nil, tile.ErrTruncatedTileData
	}

	if p == nil || p.Len() != palette.Colors {
		return nil, palette.ErrMalformed
	}

	d := decoder{
		grid:    g,
		palette: p,
	}
	if err := d.decode(data); err != nil {
		return nil, err
	}

	return d.image, nil
}

// Decode reads exactly enough tile data from r for an image the size of g and
// returns it decoded using the colors in p.
func Decode(r io.Reader, g tile.Grid, p *palette.Palette) (*Image, error) {
	if !g.Valid() {
		return nil, tile.ErrInvalidGrid
	}

	b := make([]byte, g.Bytes())
	if err := readFull(r, b); err != nil {
		if err != io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, tile.ErrTruncatedTileData
	}

	return Assemble(b, g, p)
}
