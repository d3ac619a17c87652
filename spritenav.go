/*
Package spritenav is a library for finding and decoding 4 bits per pixel
tiled graphics in Game Boy Advance ROM images.

There is no header describing the graphics so the caller supplies every
offset and size, typically from a catalog of bookmarks built up by hand.
*/
package spritenav

import (
	"io"

	"github.com/bodgit/spritenav/catalog"
	"github.com/bodgit/spritenav/tile"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Navigator pairs ROM images with a bookmark catalog.
type Navigator struct {
	db     *catalog.DB
	logger logrus.FieldLogger
}

func loggerOrDiscard(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger != nil {
		return logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// New returns a Navigator using the bookmarks in db.
func New(db *catalog.DB, logger logrus.FieldLogger) *Navigator {
	return &Navigator{
		db:     db,
		logger: loggerOrDiscard(logger),
	}
}

// Search is like ROM.Search but names any sprite that matches a bookmark.
func (n *Navigator) Search(rom *ROM, offset int64, g tile.Grid, paletteOffset int64, count int) ([]*Sprite, error) {
	sprites, err := rom.Search(offset, g, paletteOffset, count)
	for _, s := range sprites {
		name, nerr := n.db.Name(s.Offset, s.Grid)
		if nerr != nil {
			return sprites, multierror.Append(err, nerr)
		}
		s.Name = name
	}
	return sprites, err
}

func (n *Navigator) readBookmark(rom *ROM, b catalog.Bookmark) *Sprite {
	s, err := rom.ReadOne(b.Offset, b.Grid, b.PaletteOffset)
	if err != nil {
		n.logger.WithError(err).WithField("name", b.Name).Warnf("Unable to read bookmark at %#x, using placeholder", b.Offset)
		s = NewPlaceholder(b.Offset, b.Grid, b.PaletteOffset)
	}
	s.Name = b.Name
	return s
}

// Bookmarks returns a sprite for every bookmark in the catalog, in catalog
// order. Any bookmark that cannot be read from rom is returned as a
// placeholder sprite rather than an error.
func (n *Navigator) Bookmarks(rom *ROM) ([]*Sprite, error) {
	bookmarks, err := n.db.List()
	if err != nil {
		return nil, err
	}

	sprites := make([]*Sprite, 0, len(bookmarks))
	for _, b := range bookmarks {
		sprites = append(sprites, n.readBookmark(rom, b))
	}

	return sprites, nil
}
