// Package fetcher reads static dataset files over HTTP or from a local directory
// and decodes the CSV and JSON formats they come in.
package fetcher

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the requested resource does not exist.
var ErrNotFound = eris.New("fetcher: not found")

// Fetcher defines the interface for reading dataset resources.
type Fetcher interface {
	// Download fetches the resource and returns its body. Callers close it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
}

// ReadAll downloads path and returns the full body.
func ReadAll(ctx context.Context, f Fetcher, path string) ([]byte, error) {
	body, err := f.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", path)
	}
	return data, nil
}
