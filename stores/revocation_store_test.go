package stores

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStoreTest(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRevocationStoreMarkAndGet(t *testing.T) {
	client, mr := setupStoreTest(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	// No mark means "never logged out".
	last, err := store.LastLogout(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, last)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkLogout(ctx, "u-1", at))

	last, err = store.LastLogout(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(at))

	// Keyed per user under the documented namespace.
	assert.True(t, mr.Exists("user:logout:u-1"))

	last, err = store.LastLogout(ctx, "u-2")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestRevocationStoreLastWriteWins(t *testing.T) {
	client, _ := setupStoreTest(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	require.NoError(t, store.MarkLogout(ctx, "u-1", first))
	require.NoError(t, store.MarkLogout(ctx, "u-1", second))

	last, err := store.LastLogout(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, last.Equal(second))
}

func TestRevocationStoreTTL(t *testing.T) {
	client, mr := setupStoreTest(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	require.NoError(t, store.MarkLogout(ctx, "u-1", time.Now()))

	// The mark expires on its own after 30 days; no manual GC needed.
	mr.FastForward(revocationTTL + time.Minute)
	last, err := store.LastLogout(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestRevocationStoreClear(t *testing.T) {
	client, _ := setupStoreTest(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	require.NoError(t, store.MarkLogout(ctx, "u-1", time.Now()))
	require.NoError(t, store.Clear(ctx, "u-1"))

	last, err := store.LastLogout(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, last)
}
