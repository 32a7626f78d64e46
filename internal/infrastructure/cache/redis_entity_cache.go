package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// RedisEntityCache stores entries under a per-entity generation number.
// InvalidateAll bumps the generation, which orphans every older key in one
// round trip; the orphans expire with their TTL.
type RedisEntityCache struct {
	client    *redis.Client
	keyPrefix string
	ttls      map[shared.EntityType]time.Duration
}

// NewRedisEntityCache creates a cache on an existing client
func NewRedisEntityCache(client *redis.Client, keyPrefix string, ttls map[shared.EntityType]time.Duration) *RedisEntityCache {
	if keyPrefix == "" {
		keyPrefix = "chronoshop:cache:"
	}
	return &RedisEntityCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttls:      ttls,
	}
}

func (c *RedisEntityCache) generationKey(entity shared.EntityType) string {
	return c.keyPrefix + string(entity) + ":gen"
}

func (c *RedisEntityCache) generation(ctx context.Context, entity shared.EntityType) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(entity)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisEntityCache) entryKey(entity shared.EntityType, gen int64, key string) string {
	return c.keyPrefix + string(entity) + ":" + strconv.FormatInt(gen, 10) + ":" + key
}

func (c *RedisEntityCache) ttl(entity shared.EntityType) time.Duration {
	if ttl, ok := c.ttls[entity]; ok && ttl > 0 {
		return ttl
	}
	return defaultTTL
}

// Get loads the value for key into dest
func (c *RedisEntityCache) Get(ctx context.Context, entity shared.EntityType, key string, dest any) (bool, error) {
	gen, err := c.generation(ctx, entity)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, c.entryKey(entity, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache entry: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", entity, err)
	}
	return true, nil
}

// Epoch returns the entity's current generation
func (c *RedisEntityCache) Epoch(ctx context.Context, entity shared.EntityType) (int64, error) {
	return c.generation(ctx, entity)
}

// Set stores value under key in generation epoch. After an invalidation
// that generation is no longer read, so a late write is never served.
func (c *RedisEntityCache) Set(ctx context.Context, entity shared.EntityType, epoch int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", entity, err)
	}
	if err := c.client.Set(ctx, c.entryKey(entity, epoch, key), data, c.ttl(entity)).Err(); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// InvalidateAll moves the entity to a new generation
func (c *RedisEntityCache) InvalidateAll(ctx context.Context, entity shared.EntityType) error {
	if err := c.client.Incr(ctx, c.generationKey(entity)).Err(); err != nil {
		return fmt.Errorf("invalidate %s cache: %w", entity, err)
	}
	return nil
}

// Ping checks that Redis answers
func (c *RedisEntityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisEntityCache) Close() error {
	return c.client.Close()
}

var _ shared.EntityCache = (*RedisEntityCache)(nil)
