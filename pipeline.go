package spritenav

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/spritenav/catalog"
)

const exportWorkers = 4

func (n *Navigator) findBookmarks(ctx context.Context) (<-chan catalog.Bookmark, <-chan error, error) {
	bookmarks, err := n.db.List()
	if err != nil {
		return nil, nil, err
	}

	out := make(chan catalog.Bookmark)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, b := range bookmarks {
			select {
			case out <- b:
			case <-ctx.Done():
				errc <- errors.New("export cancelled")
				return
			}
		}
	}()
	return out, errc, nil
}

func writeSprite(file string, s *Sprite, scale int) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := s.WritePNG(f, scale); err != nil {
		return err
	}

	return f.Close()
}

func (n *Navigator) exportWorker(ctx context.Context, rom *ROM, dir string, scale int, in <-chan catalog.Bookmark) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for b := range in {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}
			s := n.readBookmark(rom, b)
			file := filepath.Join(dir, s.Filename())
			if err := writeSprite(file, s, scale); err != nil {
				errc <- err
				return
			}
			n.logger.Debugf("Wrote %s", file)
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Export writes every bookmarked sprite in rom to dir as a PNG file, enlarged
// by scale. Bookmarks that cannot be read are written as placeholders.
func (n *Navigator) Export(ctx context.Context, rom *ROM, dir string, scale int) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	bookmarks, errc, err := n.findBookmarks(ctx)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < exportWorkers; i++ {
		errc, err := n.exportWorker(ctx, rom, dir, scale, bookmarks)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
