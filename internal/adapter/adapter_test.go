package adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T) map[string]SlotStore {
	t.Helper()

	sqlite, err := NewAdapter(&Config{
		Type:   AdapterTypeStandalone,
		SQLite: &SQLiteConfig{Path: filepath.Join(t.TempDir(), "save.db")},
	})
	require.NoError(t, err)

	mem, err := NewAdapter(&Config{Type: AdapterTypeMemory})
	require.NoError(t, err)

	stores := map[string]SlotStore{"standalone": sqlite, "memory": mem}
	for _, s := range stores {
		require.NoError(t, s.Connect(context.Background()))
		s := s
		t.Cleanup(func() { s.Close() })
	}
	return stores
}

func TestSlotStore_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "cookieClickerSave")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "cookieClickerSave", []byte(`{"cookies":1}`)))
			require.NoError(t, store.Set(ctx, "cookieClickerSave", []byte(`{"cookies":2}`)))

			data, err := store.Get(ctx, "cookieClickerSave")
			require.NoError(t, err)
			assert.JSONEq(t, `{"cookies":2}`, string(data))

			assert.NoError(t, store.Ping(ctx))
		})
	}
}

func TestSlotStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)

			require.NoError(t, store.Set(ctx, "slot", []byte("x")))
			require.NoError(t, store.Delete(ctx, "slot"))
			_, err := store.Get(ctx, "slot")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSlotStore_RejectsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.Set(ctx, "slot", nil), ErrInvalidData)
		})
	}
}

func TestStandaloneAdapter_NotConnected(t *testing.T) {
	a, err := NewStandaloneAdapter(nil)
	require.NoError(t, err)

	_, err = a.Get(context.Background(), "slot")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, a.Close())
}

func TestStandaloneAdapter_PersistsAcrossReconnect(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "save.db")

	a, err := NewStandaloneAdapter(&SQLiteConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx))
	require.NoError(t, a.Set(ctx, "slot", []byte("persisted")))
	require.NoError(t, a.Close())

	b, err := NewStandaloneAdapter(&SQLiteConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, b.Connect(ctx))
	defer b.Close()

	data, err := b.Get(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(data))
}
