// Package store persists small keyed blobs (the geocode cache object) in
// SQLite, Postgres or memory.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Store is a key/value blob store. Get returns nil, nil for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	Migrate(ctx context.Context) error
	Close() error
}

// Drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and locates a Store.
type Config struct {
	Driver string      `yaml:"driver" mapstructure:"driver"`
	DSN    string      `yaml:"dsn" mapstructure:"dsn"`
	Pool   *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open creates the configured Store and runs its migration.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "":
		st, err = NewSQLite(cfg.DSN)
	case DriverPostgres:
		st, err = NewPostgres(ctx, cfg.DSN, cfg.Pool)
	case DriverMemory:
		st = NewMemory()
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
