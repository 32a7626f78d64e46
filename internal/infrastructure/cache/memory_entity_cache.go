package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultPartitionSize = 1024
	defaultTTL           = 5 * time.Minute
)

// cacheEntry holds a serialized value and when it was stored
type cacheEntry struct {
	data       []byte
	insertedAt time.Time
}

// MemoryEntityCache keeps one bounded LRU partition per entity type.
// Values are stored as JSON so callers never share mutable state with the
// cache.
type MemoryEntityCache struct {
	mu         sync.Mutex
	partitions map[shared.EntityType]*lru.Cache[string, cacheEntry]
	epochs     map[shared.EntityType]int64
	ttls       map[shared.EntityType]time.Duration
	size       int
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryEntityCache creates a cache with size entries per partition.
// Entity types missing from ttls use a five minute TTL.
func NewMemoryEntityCache(size int, ttls map[shared.EntityType]time.Duration) *MemoryEntityCache {
	if size <= 0 {
		size = defaultPartitionSize
	}
	return &MemoryEntityCache{
		partitions: make(map[shared.EntityType]*lru.Cache[string, cacheEntry]),
		epochs:     make(map[shared.EntityType]int64),
		ttls:       ttls,
		size:       size,
		now:        time.Now,
	}
}

func (c *MemoryEntityCache) partition(entity shared.EntityType) (*lru.Cache[string, cacheEntry], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.partitions[entity]
	if ok {
		return p, nil
	}
	p, err := lru.New[string, cacheEntry](c.size)
	if err != nil {
		return nil, fmt.Errorf("create cache partition %s: %w", entity, err)
	}
	c.partitions[entity] = p
	return p, nil
}

func (c *MemoryEntityCache) ttl(entity shared.EntityType) time.Duration {
	if ttl, ok := c.ttls[entity]; ok && ttl > 0 {
		return ttl
	}
	return defaultTTL
}

// Get loads the value for key into dest if it is younger than the TTL
func (c *MemoryEntityCache) Get(_ context.Context, entity shared.EntityType, key string, dest any) (bool, error) {
	p, err := c.partition(entity)
	if err != nil {
		return false, err
	}
	entry, ok := p.Get(key)
	if !ok {
		c.misses.Add(1)
		return false, nil
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl(entity) {
		p.Remove(key)
		c.misses.Add(1)
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", entity, err)
	}
	c.hits.Add(1)
	return true, nil
}

// Epoch returns how many times the entity type has been invalidated
func (c *MemoryEntityCache) Epoch(_ context.Context, entity shared.EntityType) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[entity], nil
}

// Set stores value under key unless the entity was invalidated after epoch
func (c *MemoryEntityCache) Set(_ context.Context, entity shared.EntityType, epoch int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", entity, err)
	}
	p, err := c.partition(entity)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epochs[entity] != epoch {
		return nil
	}
	p.Add(key, cacheEntry{data: data, insertedAt: c.now()})
	return nil
}

// InvalidateAll drops every entry of the entity type and moves its epoch
func (c *MemoryEntityCache) InvalidateAll(_ context.Context, entity shared.EntityType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epochs[entity]++
	if p, ok := c.partitions[entity]; ok {
		p.Purge()
	}
	return nil
}

// Stats returns hit and miss counts
func (c *MemoryEntityCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close drops all entries
func (c *MemoryEntityCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.partitions {
		p.Purge()
	}
	return nil
}

var _ shared.EntityCache = (*MemoryEntityCache)(nil)
