// Package cache implements the ephemeral, TTL-bearing caches described in
// spec.md §3 (the "just-added" cache, the emote cache, and the
// expired-slot cache), all backed by the same Redis instance as the
// redemption throttle.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a namespaced TTL key-value store. Get returns nil on a miss,
// matching the in-memory cache the rest of the ecosystem tests against.
type Cache interface {
	Get(ctx context.Context, key string) []byte
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// RedisCache is the production Cache, namespacing every key under a
// fixed prefix so several caches can share one Redis database without
// colliding.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// New builds a RedisCache scoped to prefix (e.g. "justadded", "emotes",
// "expiredslots").
func New(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(key string) string {
	return c.prefix + ":" + key
}

// Get retrieves a cached value, or nil if absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) []byte {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return nil
	}
	return val
}

// Set stores value under key with the given TTL. A zero TTL means "no
// expiration", matching redis.Client.Set's own convention.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.client.Set(ctx, c.key(key), value, ttl)
}

// Delete removes key immediately, used when a cache entry is
// invalidated by an event rather than left to expire.
func (c *RedisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, c.key(key))
}
