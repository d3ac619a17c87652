package spritenav

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

var errEmptyArchive = errors.New("spritenav: archive contains no files")

func openFile(filename string) (readerAtCloser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gz", ".zip", ".7z":
		b, err := loadArchive(filename)
		if err != nil {
			return nil, err
		}
		return nopCloser{bytes.NewReader(b)}, nil
	default:
		return os.Open(filename)
	}
}

// loadArchive returns the decompressed contents of the first file in the
// named archive.
func loadArchive(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var rc io.ReadCloser
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gz":
		rc, err = gzip.NewReader(f)
	case ".zip":
		rc, err = openZip(f, info.Size())
	case ".7z":
		rc, err = open7z(f, info.Size())
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func openZip(r io.ReaderAt, size int64) (io.ReadCloser, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return firstFile(zr.File)
}

func open7z(r io.ReaderAt, size int64) (io.ReadCloser, error) {
	sr, err := sevenzip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return firstFile(sr.File)
}

type archiveFile interface {
	FileInfo() fs.FileInfo
	Open() (io.ReadCloser, error)
}

// firstFile opens the first entry in files that isn't a directory.
func firstFile[F archiveFile](files []F) (io.ReadCloser, error) {
	for _, file := range files {
		if file.FileInfo().IsDir() {
			continue
		}
		return file.Open()
	}
	return nil, errEmptyArchive
}
