package shared

import "context"

// AuditLog records who did what. Implementations must not block business
// events; callers ignore the returned error beyond logging it.
type AuditLog interface {
	Log(ctx context.Context, actorUsername, actorRole, action, category string, details map[string]any) error
}

// RefreshNotifier signals UI layers that a collection changed. Delivery is a
// hint only.
type RefreshNotifier interface {
	Notify(ctx context.Context, entity EntityType) error
}
