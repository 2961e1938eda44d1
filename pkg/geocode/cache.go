package geocode

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ipo-sim/internal/geo"
)

// StorageKey names the persisted cache object.
const StorageKey = "geocodeCacheV1"

// CacheKey identifies a firm address: name|address|city|state, verbatim.
func CacheKey(addr AddressInput) string {
	return addr.Name + "|" + addr.Street + "|" + addr.City + "|" + addr.State
}

// Storage persists opaque values by key. Get returns nil, nil for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Cache maps firm addresses to resolved positions. The whole map is persisted
// as one JSON object under StorageKey after every write. Entries never expire.
type Cache struct {
	storage Storage

	mu      sync.Mutex
	entries map[string]geo.LatLng
	loaded  bool
}

// NewCache creates a Cache persisted in storage.
func NewCache(storage Storage) *Cache {
	return &Cache{storage: storage}
}

// load reads the persisted object once. A missing or corrupt object yields an
// empty cache. Callers hold c.mu.
func (c *Cache) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	data, err := c.storage.Get(ctx, StorageKey)
	if err != nil {
		return eris.Wrap(err, "geocode: load cache")
	}
	entries := make(map[string]geo.LatLng)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			zap.L().Warn("geocode: cache object unreadable, starting empty", zap.Error(err))
			entries = make(map[string]geo.LatLng)
		}
	}
	c.entries = entries
	c.loaded = true
	return nil
}

// Get returns the cached position for key.
func (c *Cache) Get(ctx context.Context, key string) (geo.LatLng, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return geo.LatLng{}, false, err
	}
	p, ok := c.entries[key]
	return p, ok, nil
}

// Put stores pos under key and persists the cache.
func (c *Cache) Put(ctx context.Context, key string, pos geo.LatLng) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return err
	}
	c.entries[key] = pos

	data, err := json.Marshal(c.entries)
	if err != nil {
		return eris.Wrap(err, "geocode: marshal cache")
	}
	if err := c.storage.Put(ctx, StorageKey, data); err != nil {
		return eris.Wrap(err, "geocode: persist cache")
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return 0, err
	}
	return len(c.entries), nil
}

// Clear drops every entry, in memory and in storage.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.storage.Delete(ctx, StorageKey); err != nil {
		return eris.Wrap(err, "geocode: clear cache")
	}
	c.entries = make(map[string]geo.LatLng)
	c.loaded = true
	return nil
}
