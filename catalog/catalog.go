/*
Package catalog implements a persistent catalog of bookmarked sprites.

Each bookmark records where a sprite's tile data starts, how many tiles wide
and high it is and where its palette is, along with a name. Bookmarks are
keyed by their offset and stored in an SQLite database.
*/
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/bodgit/spritenav/tile"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no bookmark exists at an offset
var ErrNotFound = errors.New("catalog: bookmark not found")

// Bookmark is a named sprite location.
type Bookmark struct {
	Offset        int64
	Name          string
	PaletteOffset int64
	Grid          tile.Grid
}

// DB is the bookmark catalog.
type DB struct {
	db *sql.DB
}

// Open opens, creating if necessary, the catalog in the named file.
func Open(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS bookmark (id INTEGER PRIMARY KEY NOT NULL, address INTEGER NOT NULL UNIQUE, name TEXT NOT NULL, palette INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the catalog.
func (db *DB) Close() error {
	return db.db.Close()
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func put(e execer, b Bookmark) error {
	if !b.Grid.Valid() {
		return tile.ErrInvalidGrid
	}
	if _, err := e.Exec("INSERT OR REPLACE INTO bookmark (address, name, palette, width, height) VALUES (?, ?, ?, ?, ?)", b.Offset, b.Name, b.PaletteOffset, b.Grid.Wide, b.Grid.High); err != nil {
		return err
	}
	return nil
}

// Put stores b, replacing any bookmark at the same offset.
func (db *DB) Put(b Bookmark) error {
	return put(db.db, b)
}

// Get returns the bookmark at offset.
func (db *DB) Get(offset int64) (*Bookmark, error) {
	b := Bookmark{Offset: offset}
	switch err := db.db.QueryRow("SELECT name, palette, width, height FROM bookmark WHERE address = ?", offset).Scan(&b.Name, &b.PaletteOffset, &b.Grid.Wide, &b.Grid.High); err {
	case sql.ErrNoRows:
		return nil, ErrNotFound
	case nil:
		return &b, nil
	default:
		return nil, err
	}
}

// Remove deletes the bookmark at offset.
func (db *DB) Remove(offset int64) error {
	result, err := db.db.Exec("DELETE FROM bookmark WHERE address = ?", offset)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every bookmark, smallest first and then by offset.
func (db *DB) List() ([]Bookmark, error) {
	rows, err := db.db.Query("SELECT address, name, palette, width, height FROM bookmark ORDER BY width * height, address")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.Offset, &b.Name, &b.PaletteOffset, &b.Grid.Wide, &b.Grid.High); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, rows.Err()
}

// Name returns the name of the bookmark at offset if it is also the size of
// g, otherwise an empty string.
func (db *DB) Name(offset int64, g tile.Grid) (string, error) {
	var name string
	switch err := db.db.QueryRow("SELECT name FROM bookmark WHERE address = ? AND width = ? AND height = ?", offset, g.Wide, g.High).Scan(&name); err {
	case sql.ErrNoRows:
		return "", nil
	case nil:
		return name, nil
	default:
		return "", err
	}
}

// number is an integer that may be written in YAML in any base strconv
// understands, usually hex.
type number int64

func (n *number) UnmarshalYAML(value *yaml.Node) error {
	v, err := strconv.ParseInt(value.Value, 0, 64)
	if err != nil {
		return fmt.Errorf("catalog: line %d: %w", value.Line, err)
	}
	*n = number(v)
	return nil
}

type yamlCatalog struct {
	Bookmarks []yamlBookmark `yaml:"bookmarks"`
}

type yamlBookmark struct {
	Offset  number `yaml:"offset"`
	Name    string `yaml:"name"`
	Palette number `yaml:"palette"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

// ImportYAML replaces the contents of the catalog with the bookmarks in the
// named YAML file.
func (db *DB) ImportYAML(file string) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var y yamlCatalog
	if err := yaml.Unmarshal(b, &y); err != nil {
		return err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM bookmark"); err != nil {
		return err
	}

	for _, yb := range y.Bookmarks {
		if err := put(tx, Bookmark{
			Offset:        int64(yb.Offset),
			Name:          yb.Name,
			PaletteOffset: int64(yb.Palette),
			Grid:          tile.Grid{Wide: yb.Width, High: yb.Height},
		}); err != nil {
			return fmt.Errorf("bookmark %#x: %w", int64(yb.Offset), err)
		}
	}

	return tx.Commit()
}
