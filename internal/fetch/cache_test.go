package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("https://example.com/a")
	k2 := CacheKey("https://example.com/b")
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, CacheKey("https://example.com/a"))
	assert.Contains(t, k1, "insight:page:")
}

func TestRedisCache_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, time.Hour)
	ctx := context.Background()
	url := "https://example.com"

	// Hit
	mock.ExpectGet(CacheKey(url)).SetVal("cached text")
	text, ok, err := cache.Get(ctx, url)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cached text", text)

	// Miss
	mock.ExpectGet(CacheKey(url)).RedisNil()
	_, ok, err = cache.Get(ctx, url)
	require.NoError(t, err)
	assert.False(t, ok)

	// Error
	mock.ExpectGet(CacheKey(url)).SetErr(errors.New("redis error"))
	_, ok, err = cache.Get(ctx, url)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "redis get failure")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, 2*time.Hour)
	ctx := context.Background()
	url := "https://example.com"

	mock.ExpectSet(CacheKey(url), "page text", 2*time.Hour).SetVal("OK")
	require.NoError(t, cache.Set(ctx, url, "page text"))

	mock.ExpectSet(CacheKey(url), "page text", 2*time.Hour).SetErr(errors.New("redis error"))
	err := cache.Set(ctx, url, "page text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set failure")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisCache_DefaultTTL(t *testing.T) {
	db, _ := redismock.NewClientMock()
	cache := NewRedisCache(db, 0)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
