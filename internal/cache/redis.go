// Package cache stores relay snapshots in Redis so repeated page loads within
// the TTL do not walk every upstream page again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/ohan/internal/config"
)

// DefaultKey is where the relay snapshot is stored.
const DefaultKey = "ohan:relay:records"

// Redis caches one snapshot of raw upstream rows.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedis connects lazily; call Ping to verify reachability.
func NewRedis(cfg config.CacheConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	return &Redis{client: rdb, key: DefaultKey, ttl: cfg.TTL}
}

// Ping tests the connection.
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Get returns the cached snapshot. ok is false on a miss.
func (c *Redis) Get(ctx context.Context) (records []json.RawMessage, ok bool, err error) {
	b, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return records, true, nil
}

// Set stores a snapshot for the configured TTL.
func (c *Redis) Set(ctx context.Context, records []json.RawMessage) error {
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot.
func (c *Redis) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
