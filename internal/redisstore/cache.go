package redisstore

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProjectionCache keeps JSON-encoded read projections of type T in Redis under
// a fixed keyspace prefix. A zero TTL keeps entries until explicitly
// invalidated. Cache failures are never surfaced to callers: reads fall
// through to the durable store and writes are logged and dropped.
type ProjectionCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *log.Logger
}

func NewProjectionCache[T any](client *redis.Client, prefix string, ttl time.Duration, logger *log.Logger) *ProjectionCache[T] {
	if logger == nil {
		logger = log.Default()
	}
	return &ProjectionCache[T]{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Get returns the cached projection for id, or (nil, false) on a miss or a
// stale entry that no longer unmarshals.
func (c *ProjectionCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+id).Result()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Put stores or refreshes the projection for id.
func (c *ProjectionCache[T]) Put(ctx context.Context, id string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Printf("projection cache: marshal error for %s%s: %v", c.prefix, id, err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+id, data, c.ttl).Err(); err != nil {
		c.logger.Printf("projection cache: write error for %s%s: %v", c.prefix, id, err)
	}
}

// Invalidate drops the cached projection for id.
func (c *ProjectionCache[T]) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		c.logger.Printf("projection cache: delete error for %s%s: %v", c.prefix, id, err)
	}
}
