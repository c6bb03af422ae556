package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	c := NewRedisCache(mr.Addr(), "", 0, time.Minute)
	t.Cleanup(func() {
		c.Close()
		mr.Close()
	})
	return mr, c
}

func TestRedisCache_GetMissing(t *testing.T) {
	_, c := setupTestRedis(t)

	val, found, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "image:abc", "data:image/png;base64,AAAA"))

	val, found, err := c.Get(ctx, "image:abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "data:image/png;base64,AAAA", val)

	assert.True(t, mr.Exists(keyPrefix+"image:abc"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"image:abc"))
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	mr.FastForward(2 * time.Minute)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	c := NewRedisCache(mr.Addr(), "", 0, time.Minute)
	defer c.Close()
	mr.Close()

	_, found, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, found)
}
