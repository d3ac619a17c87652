package spritenav

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"image/color"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bodgit/spritenav/palette"
	"github.com/bodgit/spritenav/tile"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPaletteOffset = 0x20
	testSpriteOffset  = 0x100
)

var testGrid = tile.Grid{Wide: 2, High: 2}

// testROM returns a ROM image with a palette at testPaletteOffset followed
// by n sprites the size of testGrid at testSpriteOffset. Every tile in
// sprite i is filled with index i+1.
func testROM(t *testing.T, n int) []byte {
	b := make([]byte, testSpriteOffset, testSpriteOffset+n*testGrid.Bytes())

	var p color.Palette
	for i := 0; i < palette.Colors; i++ {
		p = append(p, palette.RGB{R: uint8(i * 8), G: 0x80, B: uint8(248 - i*8)})
	}
	w := new(bytes.Buffer)
	require.Nil(t, palette.Write(w, p))
	copy(b[testPaletteOffset:], w.Bytes())

	for i := 0; i < n; i++ {
		c := byte(i+1) & 0x0f
		b = append(b, bytes.Repeat([]byte{c<<4 | c}, testGrid.Bytes())...)
	}

	return b
}

type read struct {
	offset int64
	length int
}

type recordingReaderAt struct {
	r     io.ReaderAt
	mu    sync.Mutex
	reads []read
}

func (r *recordingReaderAt) ReadAt(b []byte, off int64) (int, error) {
	r.mu.Lock()
	r.reads = append(r.reads, read{off, len(b)})
	r.mu.Unlock()
	return r.r.ReadAt(b, off)
}

func TestSearch(t *testing.T) {
	r := &recordingReaderAt{r: bytes.NewReader(testROM(t, 4))}
	rom := NewROM(r, nil)

	sprites, err := rom.Search(testSpriteOffset, testGrid, testPaletteOffset, 3)
	require.Nil(t, err)
	require.Len(t, sprites, 3)

	assert.Equal(t, []read{
		{testPaletteOffset, 32},
		{testSpriteOffset, 128},
		{testSpriteOffset + 128, 128},
		{testSpriteOffset + 256, 128},
	}, r.reads)

	for i, s := range sprites {
		assert.Equal(t, int64(testSpriteOffset+i*128), s.Offset)
		assert.Equal(t, testGrid, s.Grid)
		assert.Equal(t, 128, s.Length())
		assert.Equal(t, "", s.Name)
		assert.Same(t, sprites[0].Palette, s.Palette)
		assert.Equal(t, s.Palette.Colors[i+1], s.Image.RGBAt(15, 15))
	}
	assert.Equal(t, int64(testPaletteOffset), sprites[0].Palette.Offset)
	assert.Equal(t, palette.RGB{R: 8, G: 0x80, B: 240}, sprites[0].Palette.Colors[1])
}

func TestSearchMissingSource(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rom := OpenROM(filepath.Join(t.TempDir(), "missing.gba"), logger)

	sprites, err := rom.Search(testSpriteOffset, testGrid, testPaletteOffset, 3)
	assert.NotNil(t, sprites)
	assert.Len(t, sprites, 0)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestSearchTruncated(t *testing.T) {
	b := testROM(t, 3)
	r := &recordingReaderAt{r: bytes.NewReader(b[:len(b)-1])}
	rom := NewROM(r, nil)

	sprites, err := rom.Search(testSpriteOffset, testGrid, testPaletteOffset, 5)
	require.Len(t, sprites, 2)
	assert.ErrorIs(t, err, tile.ErrTruncatedTileData)
	assert.Equal(t, int64(testSpriteOffset+128), sprites[1].Offset)

	// Nothing is read after the first short read
	assert.Len(t, r.reads, 4)
}

func TestSearchMalformedPalette(t *testing.T) {
	b := testROM(t, 1)
	rom := NewROM(bytes.NewReader(b), nil)

	sprites, err := rom.Search(testSpriteOffset, testGrid, int64(len(b)-16), 1)
	assert.Len(t, sprites, 0)
	assert.ErrorIs(t, err, palette.ErrMalformed)
}

func TestSearchInvalidGrid(t *testing.T) {
	rom := NewROM(bytes.NewReader(testROM(t, 1)), nil)

	for _, g := range []tile.Grid{
		{Wide: 1, High: 0},
		{Wide: 1 << 16, High: 1 << 16},
		{Wide: 1 << 29, High: 1 << 30},
	} {
		t.Run(g.String(), func(t *testing.T) {
			sprites, err := rom.Search(testSpriteOffset, g, testPaletteOffset, 1)
			assert.Len(t, sprites, 0)
			assert.Equal(t, tile.ErrInvalidGrid, err)
		})
	}
}

func TestSearchZeroCount(t *testing.T) {
	rom := NewROM(bytes.NewReader(testROM(t, 1)), nil)

	sprites, err := rom.Search(testSpriteOffset, testGrid, testPaletteOffset, 0)
	assert.Nil(t, err)
	assert.Len(t, sprites, 0)
}

func TestReadOne(t *testing.T) {
	b := testROM(t, 2)
	rom := NewROM(bytes.NewReader(b), nil)

	s, err := rom.ReadOne(testSpriteOffset+128, testGrid, testPaletteOffset)
	require.Nil(t, err)
	assert.Equal(t, int64(testSpriteOffset+128), s.Offset)
	assert.Equal(t, s.Palette.Colors[2], s.Image.RGBAt(0, 0))

	s, err = rom.ReadOne(int64(len(b)), testGrid, testPaletteOffset)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, tile.ErrTruncatedTileData)
}

func writeFile(t *testing.T, file string, fn func(io.Writer) error) {
	f, err := os.Create(file)
	require.Nil(t, err)
	defer f.Close()
	require.Nil(t, fn(f))
}

func TestOpenROM(t *testing.T) {
	dir := t.TempDir()
	b := testROM(t, 2)

	writeFile(t, filepath.Join(dir, "rom.gba"), func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
	writeFile(t, filepath.Join(dir, "rom.gba.gz"), func(w io.Writer) error {
		zw := gzip.NewWriter(w)
		if _, err := zw.Write(b); err != nil {
			return err
		}
		return zw.Close()
	})
	writeFile(t, filepath.Join(dir, "rom.zip"), func(w io.Writer) error {
		zw := zip.NewWriter(w)
		if _, err := zw.Create("docs/"); err != nil {
			return err
		}
		fw, err := zw.Create("rom.gba")
		if err != nil {
			return err
		}
		if _, err := fw.Write(b); err != nil {
			return err
		}
		return zw.Close()
	})

	want, err := NewROM(bytes.NewReader(b), nil).ReadOne(testSpriteOffset, testGrid, testPaletteOffset)
	require.Nil(t, err)

	for _, name := range []string{"rom.gba", "rom.gba.gz", "rom.zip"} {
		t.Run(name, func(t *testing.T) {
			s, err := OpenROM(filepath.Join(dir, name), nil).ReadOne(testSpriteOffset, testGrid, testPaletteOffset)
			require.Nil(t, err)
			assert.Equal(t, want.Image.Pix, s.Image.Pix)
		})
	}
}

func TestOpenROMEmptyZip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "empty.zip")
	writeFile(t, file, func(w io.Writer) error {
		return zip.NewWriter(w).Close()
	})

	_, err := OpenROM(file, nil).Search(0, testGrid, 0, 1)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, errEmptyArchive)
}

func TestSearchConcurrent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "rom.gba")
	require.Nil(t, os.WriteFile(file, testROM(t, 8), 0644))
	rom := OpenROM(file, nil)

	var wg sync.WaitGroup
	results := make([][]*Sprite, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = rom.Search(testSpriteOffset+int64(i*testGrid.Bytes()), testGrid, testPaletteOffset, 1)
		}(i)
	}
	wg.Wait()

	for i, sprites := range results {
		require.Len(t, sprites, 1)
		assert.Equal(t, int64(testSpriteOffset+i*testGrid.Bytes()), sprites[0].Offset)
		assert.Equal(t, sprites[0].Palette.Colors[i+1], sprites[0].Image.RGBAt(3, 3))
	}
}
