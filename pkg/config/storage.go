package config

import (
	"errors"
	"fmt"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/storage"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageBadger = "badger"
)

// StorageConfig selects the seal graph backend.
type StorageConfig struct {
	// Driver is one of memory, sqlite or badger.
	Driver string `mapstructure:"driver"`
	// DSN is the SQLite database path.
	DSN string `mapstructure:"dsn"`
	// Path is the Badger directory. Empty keeps Badger in memory.
	Path string `mapstructure:"path"`
}

// DefaultStorageConfig keeps the graph in memory.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Driver: StorageMemory,
		DSN:    "seals.db",
		Path:   "./data/seals",
	}
}

// Open opens the configured store.
func (c StorageConfig) Open() (graph.Store, error) {
	switch c.Driver {
	case StorageMemory:
		return storage.NewMemory(), nil
	case StorageSQLite:
		return storage.NewSQLite(c.DSN)
	case StorageBadger:
		return storage.NewBadger(c.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}

func (c StorageConfig) validate() error {
	switch c.Driver {
	case StorageMemory, StorageBadger:
		return nil
	case StorageSQLite:
		if c.DSN == "" {
			return errors.New("sqlite driver requires a dsn")
		}
		return nil
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}
