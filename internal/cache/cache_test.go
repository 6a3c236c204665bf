package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests need Redis on localhost:6379 and skip otherwise.
const testRedisAddr = "localhost:6379"

func setupTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	cleaner := New(client, prefix, time.Minute)
	require.NoError(t, cleaner.DeletePattern(ctx, "*"))
	t.Cleanup(func() {
		_ = cleaner.DeletePattern(context.Background(), "*")
		client.Close()
	})
	return New(client, prefix, time.Minute)
}

func TestNew(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	defer client.Close()

	c := New(client, "test:", 10*time.Minute)

	assert.Equal(t, "test:", c.prefix)
	assert.Equal(t, 10*time.Minute, c.ttl)
	assert.NotNil(t, c.stats)
	assert.Equal(t, StatsSnapshot{}, c.GetStats())
}

func TestListKey(t *testing.T) {
	a := ListKey("user-1", "user", "mine", "milk", "all", "all", "1", "10")
	b := ListKey("user-1", "user", "mine", "milk", "all", "all", "1", "10")
	c := ListKey("user-1", "user", "mine", "milk", "all", "all", "2", "10")
	d := ListKey("user-2", "user", "mine", "milk", "all", "all", "1", "10")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Regexp(t, `^list:user-1:user:[0-9a-f]{40}$`, a)
}

func TestListKey_PartBoundariesMatter(t *testing.T) {
	assert.NotEqual(t,
		ListKey("u", "user", "ab", "c"),
		ListKey("u", "user", "a", "bc"),
	)
}

func TestListKey_StripsGlobCharacters(t *testing.T) {
	key := ListKey("*:[x]?", "user")
	assert.NotContains(t, key[len("list:"):], "*")
	assert.NotContains(t, key, "[")
}

func TestCache_SetGetAndInvalidate(t *testing.T) {
	c := setupTestCache(t, "test:tasks:")
	ctx := context.Background()

	type page struct {
		IDs   []string `json:"ids"`
		Total int      `json:"total"`
	}

	key := ListKey("user-1", "user", "mine")
	require.NoError(t, c.Set(ctx, key, page{IDs: []string{"a", "b"}, Total: 2}))

	var got page
	found, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, got.Total)

	require.NoError(t, c.DeletePattern(ctx, ListPattern))

	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	stats := c.GetStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Sets)
	assert.Equal(t, uint64(1), stats.Deletes)
	assert.InDelta(t, 50.0, stats.HitRate, 0.001)
}
