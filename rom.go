package spritenav

import (
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/spritenav/image"
	"github.com/bodgit/spritenav/palette"
	"github.com/bodgit/spritenav/tile"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// ErrSourceUnavailable is returned when the ROM image cannot be opened
var ErrSourceUnavailable = errors.New("spritenav: source unavailable")

type readerAtCloser interface {
	io.ReaderAt
	io.Closer
}

type nopCloser struct {
	io.ReaderAt
}

func (nopCloser) Close() error {
	return nil
}

// ROM is a read-only ROM image. Each read opens its own access to the
// underlying image so a ROM is safe for concurrent use.
type ROM struct {
	open   func() (readerAtCloser, error)
	logger logrus.FieldLogger
}

// NewROM returns a ROM that reads from r.
func NewROM(r io.ReaderAt, logger logrus.FieldLogger) *ROM {
	return &ROM{
		open: func() (readerAtCloser, error) {
			return nopCloser{r}, nil
		},
		logger: loggerOrDiscard(logger),
	}
}

// OpenROM returns a ROM that reads from the named file, which may also be a
// gzip, zip or 7-Zip archive containing the image. The file is opened afresh
// on every read so it need not exist yet.
func OpenROM(filename string, logger logrus.FieldLogger) *ROM {
	return &ROM{
		open: func() (readerAtCloser, error) {
			return openFile(filename)
		},
		logger: loggerOrDiscard(logger),
	}
}

// readAt reads exactly len(b) bytes from offset off.
func readAt(r io.ReaderAt, b []byte, off int64) error {
	n, err := r.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func readPalette(r io.ReaderAt, offset int64) (*palette.Palette, error) {
	var b [palette.Bytes]byte
	if err := readAt(r, b[:], offset); err != nil {
		if err != io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, palette.ErrMalformed
	}
	return palette.Decode(offset, b[:])
}

func readSprite(r io.ReaderAt, offset int64, g tile.Grid, p *palette.Palette) (*Sprite, error) {
	b := make([]byte, g.Bytes())
	if err := readAt(r, b, offset); err != nil {
		if err != io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, tile.ErrTruncatedTileData
	}

	m, err := image.Assemble(b, g, p)
	if err != nil {
		return nil, err
	}

	return &Sprite{
		Offset:  offset,
		Grid:    g,
		Palette: p,
		Image:   m,
	}, nil
}

// Search decodes count consecutive sprites, each the size of g, starting at
// offset. All of the sprites share the palette read from paletteOffset.
//
// If the ROM cannot be opened or the palette cannot be read no sprites are
// returned. Otherwise every sprite that could be read is returned, in order,
// along with an error for any that could not.
func (r *ROM) Search(offset int64, g tile.Grid, paletteOffset int64, count int) ([]*Sprite, error) {
	sprites := []*Sprite{}

	if !g.Valid() {
		return sprites, tile.ErrInvalidGrid
	}

	logger := r.logger.WithFields(logrus.Fields{
		"offset":  fmt.Sprintf("%#x", offset),
		"palette": fmt.Sprintf("%#x", paletteOffset),
		"size":    g.String(),
	})

	f, err := r.open()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		logger.WithError(err).Warn("Unable to open ROM")
		return sprites, err
	}
	defer f.Close()

	p, err := readPalette(f, paletteOffset)
	if err != nil {
		return sprites, fmt.Errorf("palette at %#x: %w", paletteOffset, err)
	}

	length := int64(g.Bytes())

	var result *multierror.Error
	for i := 0; i < count; i++ {
		o := offset + int64(i)*length
		s, err := readSprite(f, o, g, p)
		if err != nil {
			logger.WithError(err).Debugf("Unable to read sprite at %#x", o)
			result = multierror.Append(result, fmt.Errorf("sprite at %#x: %w", o, err))

			// Every following sprite starts even further past the end
			if errors.Is(err, tile.ErrTruncatedTileData) {
				break
			}
			continue
		}
		sprites = append(sprites, s)
	}

	logger.Debugf("Found %d of %d sprites", len(sprites), count)

	return sprites, result.ErrorOrNil()
}

// ReadOne decodes the single sprite the size of g at offset using the palette
// read from paletteOffset.
func (r *ROM) ReadOne(offset int64, g tile.Grid, paletteOffset int64) (*Sprite, error) {
	sprites, err := r.Search(offset, g, paletteOffset, 1)
	if merr, ok := err.(*multierror.Error); ok && len(merr.Errors) == 1 {
		err = merr.Errors[0]
	}
	if err != nil {
		return nil, err
	}
	return sprites[0], nil
}
