package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/spritenav/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.Nil(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestPutGet(t *testing.T) {
	db := openTestDB(t)

	b := Bookmark{
		Offset:        0x35d268,
		Name:          "OW Girl Front",
		PaletteOffset: 0x35b968,
		Grid:          tile.Grid{Wide: 2, High: 4},
	}
	require.Nil(t, db.Put(b))

	got, err := db.Get(0x35d268)
	require.Nil(t, err)
	assert.Equal(t, b, *got)

	b.Name = "Girl"
	require.Nil(t, db.Put(b))
	got, err = db.Get(0x35d268)
	require.Nil(t, err)
	assert.Equal(t, "Girl", got.Name)

	_, err = db.Get(0x1234)
	assert.Equal(t, ErrNotFound, err)
}

func TestPutInvalidGrid(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, tile.ErrInvalidGrid, db.Put(Bookmark{Offset: 1, Grid: tile.Grid{Wide: 0, High: 2}}))
}

func TestRemove(t *testing.T) {
	db := openTestDB(t)
	require.Nil(t, db.Put(Bookmark{Offset: 0x100, Grid: tile.Grid{Wide: 1, High: 1}}))

	require.Nil(t, db.Remove(0x100))
	_, err := db.Get(0x100)
	assert.Equal(t, ErrNotFound, err)
	assert.Equal(t, ErrNotFound, db.Remove(0x100))
}

func TestList(t *testing.T) {
	db := openTestDB(t)

	for _, b := range []Bookmark{
		{Offset: 0x3c3540, Name: "Fog2", Grid: tile.Grid{Wide: 8, High: 8}},
		{Offset: 0x363da8, Name: "OW Girl Bike Front", Grid: tile.Grid{Wide: 4, High: 4}},
		{Offset: 0x3c2d40, Name: "Fog1", Grid: tile.Grid{Wide: 8, High: 8}},
		{Offset: 0x35d268, Name: "OW Girl Front", Grid: tile.Grid{Wide: 2, High: 4}},
	} {
		require.Nil(t, db.Put(b))
	}

	bookmarks, err := db.List()
	require.Nil(t, err)

	var names []string
	for _, b := range bookmarks {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"OW Girl Front", "OW Girl Bike Front", "Fog1", "Fog2"}, names)
}

func TestName(t *testing.T) {
	db := openTestDB(t)
	require.Nil(t, db.Put(Bookmark{Offset: 0xeaea80, Name: "Gameboy tileset", Grid: tile.Grid{Wide: 16, High: 10}}))

	name, err := db.Name(0xeaea80, tile.Grid{Wide: 16, High: 10})
	require.Nil(t, err)
	assert.Equal(t, "Gameboy tileset", name)

	name, err = db.Name(0xeaea80, tile.Grid{Wide: 8, High: 8})
	require.Nil(t, err)
	assert.Equal(t, "", name)
}

func TestImportYAML(t *testing.T) {
	db := openTestDB(t)
	require.Nil(t, db.Put(Bookmark{Offset: 0x10, Name: "stale", Grid: tile.Grid{Wide: 1, High: 1}}))

	file := filepath.Join(t.TempDir(), "bookmarks.yaml")
	require.Nil(t, os.WriteFile(file, []byte(`bookmarks:
  - offset: 0x35D268
    name: OW Girl Front
    palette: 0x35B968
    width: 2
    height: 4
  - offset: "0xe95ddc"
    name: Types
    palette: "0xe95dbc"
    width: 16
    height: 16
`), 0644))

	require.Nil(t, db.ImportYAML(file))

	bookmarks, err := db.List()
	require.Nil(t, err)
	assert.Equal(t, []Bookmark{
		{Offset: 0x35d268, Name: "OW Girl Front", PaletteOffset: 0x35b968, Grid: tile.Grid{Wide: 2, High: 4}},
		{Offset: 0xe95ddc, Name: "Types", PaletteOffset: 0xe95dbc, Grid: tile.Grid{Wide: 16, High: 16}},
	}, bookmarks)
}

func TestImportYAMLInvalid(t *testing.T) {
	db := openTestDB(t)
	require.Nil(t, db.Put(Bookmark{Offset: 0x10, Name: "kept", Grid: tile.Grid{Wide: 1, High: 1}}))

	file := filepath.Join(t.TempDir(), "bookmarks.yaml")
	require.Nil(t, os.WriteFile(file, []byte(`bookmarks:
  - offset: 0x20
    name: no size
    palette: 0x0
`), 0644))

	assert.ErrorIs(t, db.ImportYAML(file), tile.ErrInvalidGrid)

	// The failed import leaves the catalog untouched
	b, err := db.Get(0x10)
	require.Nil(t, err)
	assert.Equal(t, "kept", b.Name)
}
