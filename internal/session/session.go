package session

import "sync"

// Session bundles the interactive state shared by the API handlers.
type Session struct {
	Overrides *Overrides
	Filter    *CategoryFilter

	mu       sync.RWMutex
	selected *int
}

// New creates a Session with no overrides, every category active and nothing
// selected.
func New() *Session {
	return &Session{
		Overrides: NewOverrides(),
		Filter:    NewCategoryFilter(),
	}
}

// Select marks firm id as selected.
func (s *Session) Select(id int) {
	s.mu.Lock()
	s.selected = &id
	s.mu.Unlock()
}

// ClearSelection deselects the current firm.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// Selected returns the selected firm id.
func (s *Session) Selected() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return 0, false
	}
	return *s.selected, true
}
