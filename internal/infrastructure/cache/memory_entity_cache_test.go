package cache

import (
	"context"
	"testing"
	"time"

	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEntityCache_GetSet(t *testing.T) {
	c := NewMemoryEntityCache(10, nil)
	ctx := context.Background()

	var got partner.Aggregates
	ok, err := c.Get(ctx, shared.EntityCustomer, "a", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := partner.Aggregates{NetValue: decimal.RequireFromString("199.90"), PurchaseCount: 2, ServiceCount: 1}
	require.NoError(t, c.Set(ctx, shared.EntityCustomer, 0, "a", want))

	ok, err = c.Get(ctx, shared.EntityCustomer, "a", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, want.Equal(got))

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestMemoryEntityCache_Expiry(t *testing.T) {
	c := NewMemoryEntityCache(10, map[shared.EntityType]time.Duration{shared.EntitySale: 300 * time.Second})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, shared.EntitySale, 0, "k", "v"))

	now = now.Add(299 * time.Second)
	var got string
	ok, err := c.Get(ctx, shared.EntitySale, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, err = c.Get(ctx, shared.EntitySale, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok, "an entry as old as the TTL is stale")
}

func TestMemoryEntityCache_InvalidateAllIsPerEntity(t *testing.T) {
	c := NewMemoryEntityCache(10, nil)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, shared.EntityCustomer, 0, "1", 1))
	require.NoError(t, c.Set(ctx, shared.EntityCustomer, 0, "2", 2))
	require.NoError(t, c.Set(ctx, shared.EntityInventoryItem, 0, "1", 3))

	require.NoError(t, c.InvalidateAll(ctx, shared.EntityCustomer))

	var v int
	ok, _ := c.Get(ctx, shared.EntityCustomer, "1", &v)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, shared.EntityCustomer, "2", &v)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, shared.EntityInventoryItem, "1", &v)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	require.NoError(t, c.InvalidateAll(ctx, shared.EntityExpense))
	require.NoError(t, c.Close())
}

func TestMemoryEntityCache_ReadThrough(t *testing.T) {
	c := NewMemoryEntityCache(10, nil)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) (*partner.Aggregates, error) {
		loads++
		return &partner.Aggregates{PurchaseCount: loads}, nil
	}

	first, err := shared.ReadThrough(ctx, c, shared.EntityCustomer, "agg", load)
	require.NoError(t, err)
	second, err := shared.ReadThrough(ctx, c, shared.EntityCustomer, "agg", load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, first.PurchaseCount, second.PurchaseCount)

	require.NoError(t, c.InvalidateAll(ctx, shared.EntityCustomer))
	third, err := shared.ReadThrough(ctx, c, shared.EntityCustomer, "agg", load)
	require.NoError(t, err)
	assert.Equal(t, 2, third.PurchaseCount)
}

func TestMemoryEntityCache_SetAfterInvalidationIsDropped(t *testing.T) {
	c := NewMemoryEntityCache(10, nil)
	ctx := context.Background()

	epoch, err := c.Epoch(ctx, shared.EntityCustomer)
	require.NoError(t, err)
	require.NoError(t, c.InvalidateAll(ctx, shared.EntityCustomer))
	require.NoError(t, c.Set(ctx, shared.EntityCustomer, epoch, "agg", 1))

	var v int
	ok, err := c.Get(ctx, shared.EntityCustomer, "agg", &v)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := c.Epoch(ctx, shared.EntityInventoryItem)
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestMemoryEntityCache_ReadThroughRacingWrite(t *testing.T) {
	c := NewMemoryEntityCache(10, nil)
	ctx := context.Background()
	stored := 0
	load := func(ctx context.Context) (*partner.Aggregates, error) {
		read := stored
		// a write commits and invalidates between the read and the cache fill
		stored++
		require.NoError(t, c.InvalidateAll(ctx, shared.EntityCustomer))
		return &partner.Aggregates{PurchaseCount: read}, nil
	}

	stale, err := shared.ReadThrough(ctx, c, shared.EntityCustomer, "agg", load)
	require.NoError(t, err)
	assert.Equal(t, 0, stale.PurchaseCount)

	fresh, err := shared.ReadThrough(ctx, c, shared.EntityCustomer, "agg", func(context.Context) (*partner.Aggregates, error) {
		return &partner.Aggregates{PurchaseCount: stored}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.PurchaseCount)
}

func TestEntityCacheFactory_MemoryBackend(t *testing.T) {
	cfg := config.CacheConfig{Backend: config.CacheBackendMemory, Size: 8, CustomerTTL: 400 * time.Second}
	f := NewEntityCacheFactory(cfg, config.RedisConfig{})

	c, err := f.CreateCache()
	require.NoError(t, err)
	mem, ok := c.(*MemoryEntityCache)
	require.True(t, ok)
	assert.Equal(t, 400*time.Second, mem.ttl(shared.EntityCustomer))
	assert.Equal(t, defaultTTL, mem.ttl(shared.EntityInvoice))
}

func TestEntityCacheFactory_RedisFallback(t *testing.T) {
	cfg := config.CacheConfig{Backend: config.CacheBackendRedis, Size: 8}
	redisCfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	c, err := NewEntityCacheFactory(cfg, redisCfg).CreateCache()
	require.NoError(t, err)
	assert.IsType(t, &MemoryEntityCache{}, c)

	_, err = NewEntityCacheFactory(cfg, redisCfg, WithInMemoryFallback(false)).CreateCache()
	assert.Error(t, err)
}
