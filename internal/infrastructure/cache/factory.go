package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EntityCacheFactory creates entity caches based on configuration
type EntityCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// EntityCacheFactoryOption is a functional option for configuring the factory
type EntityCacheFactoryOption func(*EntityCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) EntityCacheFactoryOption {
	return func(f *EntityCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) EntityCacheFactoryOption {
	return func(f *EntityCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewEntityCacheFactory creates a new factory
func NewEntityCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...EntityCacheFactoryOption) *EntityCacheFactory {
	f := &EntityCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// TTLs converts the configured TTLs to entity types
func TTLs(cfg config.CacheConfig) map[shared.EntityType]time.Duration {
	ttls := make(map[shared.EntityType]time.Duration)
	for name, ttl := range cfg.TTLs() {
		ttls[shared.EntityType(name)] = ttl
	}
	return ttls
}

// CreateMemoryCache creates a process-local cache
func (f *EntityCacheFactory) CreateMemoryCache() *MemoryEntityCache {
	return NewMemoryEntityCache(f.cacheConfig.Size, TTLs(f.cacheConfig))
}

// CreateRedisCache connects to Redis and creates a shared cache
func (f *EntityCacheFactory) CreateRedisCache() (*RedisEntityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisEntityCache(client, f.cacheConfig.KeyPrefix, TTLs(f.cacheConfig)), nil
}

// CreateCache creates the configured cache. A Redis backend that cannot be
// reached falls back to memory unless fallback is disabled.
func (f *EntityCacheFactory) CreateCache() (shared.EntityCache, error) {
	if f.cacheConfig.Backend != config.CacheBackendRedis {
		f.logger.Info("using in-memory entity cache", zap.Int("partition_size", f.cacheConfig.Size))
		return f.CreateMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis entity cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis cache required but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory entity cache. "+
		"Invalidations will not reach other instances.",
		zap.Error(err),
	)
	return f.CreateMemoryCache(), nil
}
