package state_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/paiml/forge-go/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]state.Store {
	t.Helper()
	sqlitePath := filepath.Join(t.TempDir(), "state.db")
	sqliteStore, err := state.NewSQLite(sqlitePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]state.Store{
		"memory": state.NewMemory(),
		"sqlite": sqliteStore,
	}
}

func TestSetGetDeleteExists(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := store.Exists(ctx, "k1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "k1", []byte("v1"), 0))

			val, ok, err := store.Get(ctx, "k1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("v1"), val)

			ok, err = store.Exists(ctx, "k1")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, store.Delete(ctx, "k1"))

			_, ok, err = store.Get(ctx, "k1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestTTLExpiresLazily(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "ttl-key", []byte("v"), 20*time.Millisecond))

			ok, err := store.Exists(ctx, "ttl-key")
			require.NoError(t, err)
			assert.True(t, ok)

			time.Sleep(40 * time.Millisecond)

			_, ok, err = store.Get(ctx, "ttl-key")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSetOverwritesExistingKey(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "k", []byte("first"), 0))
			require.NoError(t, store.Set(ctx, "k", []byte("second"), 0))

			val, ok, err := store.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("second"), val)
		})
	}
}
