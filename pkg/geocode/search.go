package geocode

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrSuperseded is returned by Searcher.Search when a newer query replaced it.
var ErrSuperseded = eris.New("geocode: search superseded")

// Searcher runs interactive place searches. Starting a search cancels the one
// still in flight, so only the latest query produces a result.
type Searcher struct {
	provider Provider

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSearcher creates a Searcher backed by provider.
func NewSearcher(provider Provider) *Searcher {
	return &Searcher{provider: provider}
}

// Search geocodes query, aborting any earlier outstanding search.
func (s *Searcher) Search(ctx context.Context, query string) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	result, err := s.provider.Geocode(ctx, query)

	s.mu.Lock()
	superseded := s.seq != seq
	s.mu.Unlock()
	if superseded {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, eris.Wrap(err, "geocode: search")
	}
	return result, nil
}
