package fetcher

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// DirFetcher serves dataset paths from a directory on disk, mirroring how the
// web bundle serves its public directory.
type DirFetcher struct {
	Root string
}

// NewDirFetcher creates a DirFetcher rooted at root.
func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{Root: root}
}

// Download opens the file at the slash-separated path p under Root.
func (d *DirFetcher) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "dir: context cancelled")
	}

	clean := path.Clean("/" + strings.TrimSpace(p))
	full := filepath.Join(d.Root, filepath.FromSlash(clean))

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrNotFound, "dir: %s", clean)
		}
		return nil, eris.Wrapf(err, "dir: open %s", clean)
	}
	return f, nil
}
