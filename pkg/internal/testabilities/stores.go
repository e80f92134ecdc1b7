package testabilities

import (
	"path/filepath"
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/storage"
	"github.com/stretchr/testify/require"
)

// StoreFactory opens an empty graph store that is closed when the test ends.
type StoreFactory func(t testing.TB) graph.Store

// StoreFactories returns a factory for every store backend.
func StoreFactories() map[string]StoreFactory {
	return map[string]StoreFactory{
		"memory": func(t testing.TB) graph.Store {
			return storage.NewMemory()
		},
		"sqlite": func(t testing.TB) graph.Store {
			t.Helper()
			store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "seals.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
		"badger": func(t testing.TB) graph.Store {
			t.Helper()
			store, err := storage.NewBadger(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
}
