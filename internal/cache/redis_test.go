package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/config"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *cache.RedisCache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })

	return mr, c
}

func TestMatchCount_MissSetHitInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestCache(t)

	_, ok, err := c.GetMatchCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetMatchCount(ctx, 7, 3))
	n, ok, err := c.GetMatchCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, time.Hour, mr.TTL("matches:count:7"))

	require.NoError(t, c.SetMatchCount(ctx, 8, 1))
	require.NoError(t, c.InvalidateMatchCounts(ctx, 7, 8))
	assert.False(t, mr.Exists("matches:count:7"))
	assert.False(t, mr.Exists("matches:count:8"))
}

func TestMatchCount_GarbageIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestCache(t)

	require.NoError(t, mr.Set("matches:count:9", "not-a-number"))
	_, ok, err := c.GetMatchCount(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrementSwipeWindow(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestCache(t)
	now := time.Date(2024, 3, 1, 10, 0, 30, 0, time.UTC)

	for i := int64(1); i <= 3; i++ {
		n, err := c.IncrementSwipeWindow(ctx, 42, now)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	key := c.KeyForSwipeWindow(42, now)
	assert.Equal(t, time.Minute, mr.TTL(key))

	// next minute starts a fresh window
	n, err := c.IncrementSwipeWindow(ctx, 42, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
