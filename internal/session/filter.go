package session

import (
	"sync"

	"github.com/sells-group/ipo-sim/internal/model"
)

// CategoryFilter tracks which firm categories are shown. At least one category
// always stays active.
type CategoryFilter struct {
	mu     sync.RWMutex
	active map[model.Category]bool
}

// NewCategoryFilter creates a filter with every category active.
func NewCategoryFilter() *CategoryFilter {
	f := &CategoryFilter{}
	f.Reset()
	return f
}

// Toggle flips cat. Turning off the last active category is a no-op. It
// reports whether the filter changed.
func (f *CategoryFilter) Toggle(cat model.Category) bool {
	if !cat.Valid() {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active[cat] && f.countLocked() == 1 {
		return false
	}
	f.active[cat] = !f.active[cat]
	return true
}

// Set activates only cats. An empty or entirely invalid list resets the filter.
func (f *CategoryFilter) Set(cats []model.Category) {
	next := make(map[model.Category]bool, len(model.Categories))
	n := 0
	for _, c := range cats {
		if c.Valid() && !next[c] {
			next[c] = true
			n++
		}
	}
	if n == 0 {
		f.Reset()
		return
	}
	for _, c := range model.Categories {
		if !next[c] {
			next[c] = false
		}
	}
	f.mu.Lock()
	f.active = next
	f.mu.Unlock()
}

// Reset activates every category.
func (f *CategoryFilter) Reset() {
	active := make(map[model.Category]bool, len(model.Categories))
	for _, c := range model.Categories {
		active[c] = true
	}
	f.mu.Lock()
	f.active = active
	f.mu.Unlock()
}

// Active returns the active categories in canonical order.
func (f *CategoryFilter) Active() []model.Category {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []model.Category
	for _, c := range model.Categories {
		if f.active[c] {
			out = append(out, c)
		}
	}
	return out
}

// Allows reports whether cat is active.
func (f *CategoryFilter) Allows(cat model.Category) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active[cat]
}

// Filter returns the firms whose category is active.
func (f *CategoryFilter) Filter(firms []model.Firm) []model.Firm {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]model.Firm, 0, len(firms))
	for _, firm := range firms {
		if f.active[firm.Category] {
			out = append(out, firm)
		}
	}
	return out
}

func (f *CategoryFilter) countLocked() int {
	n := 0
	for _, on := range f.active {
		if on {
			n++
		}
	}
	return n
}
