package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long extracted page text stays cached.
const DefaultCacheTTL = 6 * time.Hour

const cacheKeyPrefix = "insight:page:"

// PageCache stores extracted page text by URL.
type PageCache interface {
	// Get returns the cached text and whether it was present.
	Get(ctx context.Context, url string) (string, bool, error)
	Set(ctx context.Context, url, text string) error
}

// RedisCache is a PageCache backed by Redis string keys with a TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient connects to addr. The connection is lazy; Ping to verify it.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisCache wraps client. A non-positive ttl uses DefaultCacheTTL.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// CacheKey returns the Redis key for url.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get implements PageCache.
func (c *RedisCache) Get(ctx context.Context, url string) (string, bool, error) {
	text, err := c.client.Get(ctx, CacheKey(url)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failure: %w", err)
	}
	return text, true, nil
}

// Set implements PageCache.
func (c *RedisCache) Set(ctx context.Context, url, text string) error {
	if err := c.client.Set(ctx, CacheKey(url), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failure: %w", err)
	}
	return nil
}
