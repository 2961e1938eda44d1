package content

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Store holds the current dataset and reloads it when the source mode changes.
// When loads overlap, only the most recently started one is published.
type Store struct {
	loader *Loader

	mu      sync.RWMutex
	mode    Mode
	current *Dataset
	gen     uint64
	subs    map[int]func(*Dataset)
	nextSub int
}

// NewStore creates a Store for mode. Nothing is loaded until Reload or SetMode.
func NewStore(l *Loader, mode Mode) *Store {
	return &Store{
		loader: l,
		mode:   mode,
		subs:   make(map[int]func(*Dataset)),
	}
}

// Mode returns the selected source mode.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Snapshot returns the last published dataset, or nil before the first load.
func (s *Store) Snapshot() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetMode selects a source mode and reloads. Selecting the mode that is already
// loaded returns the current dataset without reloading.
func (s *Store) SetMode(ctx context.Context, mode Mode) *Dataset {
	s.mu.Lock()
	if mode == s.mode && s.current != nil {
		cur := s.current
		s.mu.Unlock()
		return cur
	}
	s.mode = mode
	s.mu.Unlock()
	return s.Reload(ctx)
}

// Load returns the dataset for mode without selecting it. The published
// dataset is reused when it already holds mode.
func (s *Store) Load(ctx context.Context, mode Mode) *Dataset {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur != nil && cur.Mode == mode {
		return cur
	}
	return s.loader.Load(ctx, mode)
}

// Reload loads the selected mode and publishes the result unless a newer load
// started in the meantime. The returned dataset is the one this call produced.
func (s *Store) Reload(ctx context.Context) *Dataset {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	mode := s.mode
	s.mu.Unlock()

	ds := s.loader.Load(ctx, mode)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		zap.L().Debug("content: discarding superseded load", zap.String("mode", string(mode)))
		return ds
	}
	s.current = ds
	subs := make([]func(*Dataset), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ds)
	}
	return ds
}

// Subscribe registers fn to receive every published dataset. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(*Dataset)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
