package integration

import (
	"context"
	"testing"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/cache"
	"github.com/chronoshop/backend/internal/infrastructure/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCustomer struct {
	Name     string `json:"name"`
	NetValue string `json:"net_value"`
}

func TestRedisEntityCache_InvalidationIsShared(t *testing.T) {
	client := NewTestRedis(t)
	ctx := context.Background()
	ttls := map[shared.EntityType]time.Duration{shared.EntityCustomer: time.Minute}

	writer := cache.NewRedisEntityCache(client, "test", ttls)
	reader := cache.NewRedisEntityCache(client, "test", ttls)
	require.NoError(t, writer.Ping(ctx))

	gen, err := writer.Epoch(ctx, shared.EntityCustomer)
	require.NoError(t, err)
	require.NoError(t, writer.Set(ctx, shared.EntityCustomer, gen, "list", cachedCustomer{Name: "Ada", NetValue: "100"}))

	var got cachedCustomer
	found, err := reader.Get(ctx, shared.EntityCustomer, "list", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ada", got.Name)

	require.NoError(t, reader.InvalidateAll(ctx, shared.EntityCustomer))

	found, err = writer.Get(ctx, shared.EntityCustomer, "list", &got)
	require.NoError(t, err)
	assert.False(t, found, "invalidation from one instance must be seen by the other")

	found, err = reader.Get(ctx, shared.EntitySale, "list", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// a fill loaded under the old generation lands where nobody reads
	require.NoError(t, writer.Set(ctx, shared.EntityCustomer, gen, "list", cachedCustomer{Name: "Stale"}))
	found, err = reader.Get(ctx, shared.EntityCustomer, "list", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisNotifier_SubscribeReceivesHints(t *testing.T) {
	client := NewTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifier := notify.NewRedisNotifier(client, "test:refresh")
	hints, err := notifier.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, notifier.Notify(ctx, shared.EntityInventoryItem))

	select {
	case msg := <-hints:
		assert.Equal(t, shared.EntityInventoryItem, msg.Entity)
		assert.False(t, msg.At.IsZero())
	case <-ctx.Done():
		t.Fatal("no refresh hint received")
	}

	cancel()
	for range hints {
	}
}

func TestRedisIdempotencyStore_SharedAcrossInstances(t *testing.T) {
	client := NewTestRedis(t)
	ctx := context.Background()

	a := cache.NewRedisIdempotencyStore(client, "test:handled:")
	b := cache.NewRedisIdempotencyStore(client, "test:handled:")

	first, err := a.MarkProcessed(ctx, "document.issued:42", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := b.MarkProcessed(ctx, "document.issued:42", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	ttl, err := client.TTL(ctx, "test:handled:document.issued:42").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
