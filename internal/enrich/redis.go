package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "radar:enrich:"

// RedisCache layers an in-process L1 over Redis (L2) so enrichment results
// survive restarts and are shared between replicas. L2 failures degrade to
// L1-only behavior and are never returned to callers.
type RedisCache struct {
	l1  *MemoryCache
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to redisURL and verifies it with a ping. ttl bounds
// how long Redis keeps an entry.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Printf("[enrich] Redis cache connected at %s", opts.Addr)
	return NewRedisCacheWithClient(rdb, ttl), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{l1: NewMemoryCache(), rdb: rdb, ttl: ttl}
}

// Get tries L1 then L2. An L2 hit populates L1.
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, bool) {
	if entry, ok := c.l1.Get(ctx, key); ok {
		return entry, true
	}

	data, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[enrich] Redis get failed for %s: %v", key, err)
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	c.l1.Set(ctx, key, entry)
	return &entry, true
}

// Set stores entry in both tiers.
func (c *RedisCache) Set(ctx context.Context, key string, entry Entry) {
	c.l1.Set(ctx, key, entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		log.Printf("[enrich] Redis set failed for %s: %v", key, err)
	}
}

// Prune drops stale entries from the in-process tier. Redis expires its own
// copies through the TTL given to Set.
func (c *RedisCache) Prune(prefix string, cutoff time.Time) int {
	return c.l1.Prune(prefix, cutoff)
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
