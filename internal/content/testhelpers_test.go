package content

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/sells-group/ipo-sim/internal/fetcher"
)

// memFetcher serves fixed bodies by path; unknown paths are ErrNotFound.
type memFetcher struct {
	mu    sync.Mutex
	files map[string]string
	calls []string
}

func newMemFetcher(files map[string]string) *memFetcher {
	return &memFetcher{files: files}
}

func (m *memFetcher) Download(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)
	body, ok := m.files[path]
	if !ok {
		return nil, fetcher.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (m *memFetcher) requested(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == path {
			return true
		}
	}
	return false
}

// gatedFetcher blocks downloads of gatePath until release is closed.
type gatedFetcher struct {
	inner    fetcher.Fetcher
	gatePath string
	release  chan struct{}
	entered  chan struct{}
}

func (g *gatedFetcher) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == g.gatePath {
		select {
		case g.entered <- struct{}{}:
		default:
		}
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.inner.Download(ctx, path)
}

const (
	basePath    = "/startup_ipo_game_pack/data/firms.json"
	economyPath = "/startup_ipo_game_pack/data/economy.json"
)
