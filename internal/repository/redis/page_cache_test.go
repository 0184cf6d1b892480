package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedPage struct {
	Items []string `json:"items"`
}

func newTestCache(t *testing.T) (*PageCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPageCache(client, time.Minute), mr
}

func TestPageCache_StoreAndLookup(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var got cachedPage
	version, hit, err := cache.Lookup(ctx, ScopeIndex, 1, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Store(ctx, ScopeIndex, version, 1, cachedPage{Items: []string{"a", "b"}}))

	_, hit, err = cache.Lookup(ctx, ScopeIndex, 1, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got.Items)

	_, hit, err = cache.Lookup(ctx, ScopeIndex, 2, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPageCache_InvalidateIsTargeted(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, ScopeIndex, 0, 1, cachedPage{Items: []string{"index"}}))
	require.NoError(t, cache.Store(ctx, GroupScope("cats"), 0, 1, cachedPage{Items: []string{"cats"}}))

	require.NoError(t, cache.Invalidate(ctx, ScopeIndex))

	var got cachedPage
	_, hit, err := cache.Lookup(ctx, ScopeIndex, 1, &got)
	require.NoError(t, err)
	assert.False(t, hit, "index must be invalidated")

	_, hit, err = cache.Lookup(ctx, GroupScope("cats"), 1, &got)
	require.NoError(t, err)
	assert.True(t, hit, "other scopes must survive")
}

func TestPageCache_StaleVersionIsNeverServed(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var got cachedPage
	version, _, err := cache.Lookup(ctx, ScopeIndex, 1, &got)
	require.NoError(t, err)

	// a write lands between the lookup and the store
	require.NoError(t, cache.Invalidate(ctx, ScopeIndex))
	require.NoError(t, cache.Store(ctx, ScopeIndex, version, 1, cachedPage{Items: []string{"stale"}}))

	_, hit, err := cache.Lookup(ctx, ScopeIndex, 1, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPageCache_Clear(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, ScopeIndex, 0, 1, cachedPage{}))
	require.NoError(t, cache.Store(ctx, ProfileScope("leo"), 0, 3, cachedPage{}))
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, cache.Clear(ctx))

	var got cachedPage
	_, hit, err := cache.Lookup(ctx, ScopeIndex, 1, &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, mr.Exists("unrelated"))
}

func TestPageCache_TTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, ScopeIndex, 0, 1, cachedPage{}))
	mr.FastForward(2 * time.Minute)

	var got cachedPage
	_, hit, err := cache.Lookup(ctx, ScopeIndex, 1, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPageCache_Disabled(t *testing.T) {
	cache := NewPageCache(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, ScopeIndex, 0, 1, cachedPage{}))
	var got cachedPage
	_, hit, err := cache.Lookup(ctx, ScopeIndex, 1, &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Invalidate(ctx, ScopeIndex))
	assert.NoError(t, cache.Clear(ctx))
}
