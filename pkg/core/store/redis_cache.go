package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProjectionCache keeps projection runs in Redis with an expiry.
type RedisProjectionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisProjectionCache connects lazily to addr. A zero ttl keeps entries forever.
func NewRedisProjectionCache(addr string, ttl time.Duration) *RedisProjectionCache {
	return &RedisProjectionCache{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 2 * time.Second,
		}),
		prefix: "projection:",
		ttl:    ttl,
	}
}

// Get returns the cached entry or ErrNotFound.
func (c *RedisProjectionCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal redis cached run: %w", err)
	}
	return &entry, nil
}

// Save stores entry under entry.Key.
func (c *RedisProjectionCache) Save(ctx context.Context, entry *CacheEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+entry.Key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisProjectionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (c *RedisProjectionCache) Close() error {
	return c.client.Close()
}
