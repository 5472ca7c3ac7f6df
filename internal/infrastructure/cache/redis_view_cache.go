package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisViewCache memoizes assembled dashboard payloads in Redis so that
// multiple instances share the same warm cache. Redis failures degrade to
// misses; the dashboard pipeline just recomputes.
type RedisViewCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisViewCache creates a Redis-backed view cache, verifying the
// connection up front.
func NewRedisViewCache(cfg RedisConfig, logger *zap.Logger) (*RedisViewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisViewCacheWithClient(client, "", logger), nil
}

// NewRedisViewCacheWithClient creates a cache with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisViewCacheWithClient(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisViewCache {
	if keyPrefix == "" {
		keyPrefix = "view:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisViewCache{client: client, keyPrefix: keyPrefix, logger: logger}
}

// Get returns the cached payload for the key, if present
func (c *RedisViewCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis view cache read failed, treating as miss",
				zap.String("key", key),
				zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

// Set stores the payload under the key with the given TTL
func (c *RedisViewCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.keyPrefix+key, payload, ttl).Err(); err != nil {
		c.logger.Warn("redis view cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}
}

// Close releases the underlying Redis client
func (c *RedisViewCache) Close() error {
	return c.client.Close()
}
