// Package cache provides the Redis-backed key-value store. It carries both
// the public key-value passthrough data and short-lived coordination keys
// such as comparison locks.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ranz0c/leakhub/internal/config"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Cache is the key-value store interface used by services.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}

// RedisCache implements Cache on a Redis connection. Every key is stored
// under the configured prefix so multiple deployments can share an instance.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection.
func New(cfg *config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Int("db", cfg.DB).
		Msg("Connected to Redis")

	return &RedisCache{client: client, prefix: cfg.KeyPrefix}, nil
}

// NewWithClient wraps an existing Redis client. Used in tests.
func NewWithClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

// Get retrieves a value. Returns ErrNotFound when the key does not exist.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Set stores a value. Zero expiration means no TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, expiration).Err()
}

// Del deletes keys.
func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	return c.client.Del(ctx, prefixed...).Err()
}

// Exists checks if a key exists.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetNX sets a key only if it doesn't exist (for distributed locking).
func (c *RedisCache) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	return c.client.SetNX(ctx, c.key(key), value, expiration).Result()
}

// Keys lists keys matching a glob pattern, with the prefix stripped.
func (c *RedisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := c.client.Keys(ctx, c.key(pattern)).Result()
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = k[len(c.prefix):]
	}
	return keys, nil
}

// Health checks if Redis is reachable.
func (c *RedisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
