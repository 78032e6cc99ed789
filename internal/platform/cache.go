package platform

import (
	"context"
	"time"
)

// Cache is the response cache Client consults for GET requests. It is
// satisfied by internal/cache.RedisCache; tests use a simple in-memory
// stand-in.
type Cache interface {
	Get(ctx context.Context, key string) []byte
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
