package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeStoreIssueAndRedeemOnce(t *testing.T) {
	client, _ := setupStoreTest(t)
	store := NewExchangeStore(client)
	ctx := context.Background()

	key, err := store.Issue(ctx, "the-session-token")
	require.NoError(t, err)
	require.NotEmpty(t, key)

	token, err := store.Redeem(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "the-session-token", token)

	// Exactly once: the second redemption misses.
	token, err = store.Redeem(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestExchangeStoreNeverIssuedKey(t *testing.T) {
	client, _ := setupStoreTest(t)
	store := NewExchangeStore(client)

	token, err := store.Redeem(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestExchangeStoreExpiry(t *testing.T) {
	client, mr := setupStoreTest(t)
	store := NewExchangeStore(client)
	ctx := context.Background()

	key, err := store.Issue(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, mr.Exists("access_token:"+key))

	mr.FastForward(exchangeTTL + time.Second)
	token, err := store.Redeem(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestExchangeStoreKeysAreUnique(t *testing.T) {
	client, _ := setupStoreTest(t)
	store := NewExchangeStore(client)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := store.Issue(ctx, "tok")
		require.NoError(t, err)
		assert.False(t, seen[key])
		seen[key] = true
	}
}
