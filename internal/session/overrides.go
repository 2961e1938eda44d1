// Package session holds the per-process interactive state the map view reads:
// geocoded position overrides, the category filter and the selected firm.
package session

import (
	"sort"
	"sync"

	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/model"
)

// Overrides maps firm ids to positions resolved at runtime. Overrides are not
// persisted; the geocode cache is what survives restarts.
type Overrides struct {
	mu  sync.RWMutex
	pos map[int]geo.LatLng
}

// NewOverrides creates an empty Overrides.
func NewOverrides() *Overrides {
	return &Overrides{pos: make(map[int]geo.LatLng)}
}

// Set records pos for firm id, replacing any earlier override.
func (o *Overrides) Set(id int, pos geo.LatLng) {
	o.mu.Lock()
	o.pos[id] = pos
	o.mu.Unlock()
}

// Get returns the override for id.
func (o *Overrides) Get(id int) (geo.LatLng, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.pos[id]
	return p, ok
}

// Has reports whether id has an override.
func (o *Overrides) Has(id int) bool {
	_, ok := o.Get(id)
	return ok
}

// Len returns the number of overrides.
func (o *Overrides) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.pos)
}

// All returns a copy of every override.
func (o *Overrides) All() map[int]geo.LatLng {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[int]geo.LatLng, len(o.pos))
	for id, p := range o.pos {
		out[id] = p
	}
	return out
}

// IDs returns the overridden firm ids in ascending order.
func (o *Overrides) IDs() []int {
	o.mu.RLock()
	ids := make([]int, 0, len(o.pos))
	for id := range o.pos {
		ids = append(ids, id)
	}
	o.mu.RUnlock()
	sort.Ints(ids)
	return ids
}

// Clear drops every override.
func (o *Overrides) Clear() {
	o.mu.Lock()
	o.pos = make(map[int]geo.LatLng)
	o.mu.Unlock()
}

// Apply returns a copy of firms with overridden positions substituted. An
// overridden firm is no longer a placeholder.
func (o *Overrides) Apply(firms []model.Firm) []model.Firm {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]model.Firm, len(firms))
	for i, f := range firms {
		if p, ok := o.pos[f.ID]; ok {
			f.Position = &p
			f.Placeholder = false
		}
		out[i] = f
	}
	return out
}
