package shared

import "context"

// EntityCache is a read-through cache partitioned by entity type. Values
// expire after the entity's TTL; any write to an entity invalidates the
// whole partition.
type EntityCache interface {
	Closeable
	// Get loads the cached value for key into dest. It reports false on a
	// miss or an expired entry.
	Get(ctx context.Context, entity EntityType, key string, dest any) (bool, error)
	// Epoch returns the partition's invalidation counter. Every
	// InvalidateAll moves it forward.
	Epoch(ctx context.Context, entity EntityType) (int64, error)
	// Set stores value under key if the partition is still at epoch. A value
	// loaded before an invalidation is dropped.
	Set(ctx context.Context, entity EntityType, epoch int64, key string, value any) error
	InvalidateAll(ctx context.Context, entity EntityType) error
}

// ReadThrough returns the cached value for key or loads, caches and returns
// it. The epoch is taken before the load, so a write committed while the
// load runs keeps its result out of the cache. Cache errors degrade to a
// direct load.
func ReadThrough[T any](ctx context.Context, c EntityCache, entity EntityType, key string, load func(context.Context) (*T, error)) (*T, error) {
	if c == nil {
		return load(ctx)
	}
	var cached T
	if ok, err := c.Get(ctx, entity, key, &cached); err == nil && ok {
		return &cached, nil
	}
	epoch, epochErr := c.Epoch(ctx, entity)
	value, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if epochErr == nil {
		_ = c.Set(ctx, entity, epoch, key, value)
	}
	return value, nil
}
