package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencySize   = 4096
	defaultIdempotencyPrefix = "chronoshop:handled:"
)

// MemoryIdempotencyStore keeps handled keys in a bounded LRU. When the LRU is
// full the oldest keys are forgotten before their TTL, which can let a very
// late duplicate through.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	handled *lru.Cache[string, time.Time]
	now     func() time.Time
}

// NewMemoryIdempotencyStore creates a store remembering up to size keys
func NewMemoryIdempotencyStore(size int) *MemoryIdempotencyStore {
	if size <= 0 {
		size = defaultIdempotencySize
	}
	// lru.New only fails for non-positive sizes.
	handled, _ := lru.New[string, time.Time](size)
	return &MemoryIdempotencyStore{handled: handled, now: time.Now}
}

// MarkProcessed implements shared.IdempotencyStore
func (s *MemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, ok := s.handled.Get(key); ok && now.Before(expiresAt) {
		return false, nil
	}
	s.handled.Add(key, now.Add(ttl))
	return true, nil
}

// Len returns the number of remembered keys, expired ones included
func (s *MemoryIdempotencyStore) Len() int {
	return s.handled.Len()
}

// Close implements shared.Closeable
func (s *MemoryIdempotencyStore) Close() error {
	s.handled.Purge()
	return nil
}

// RedisIdempotencyStore shares handled keys between processes with SET NX
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewRedisIdempotencyStore creates a store on an existing client. The
// client stays owned by the caller.
func NewRedisIdempotencyStore(client *redis.Client, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

// MarkProcessed implements shared.IdempotencyStore
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark %s handled: %w", key, err)
	}
	return ok, nil
}

// Close implements shared.Closeable
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var (
	_ shared.IdempotencyStore = (*MemoryIdempotencyStore)(nil)
	_ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
)
