package event

import (
	"context"
	"encoding/json"

	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditHandler writes every domain event to the audit log, attributed to
// the actor stored in the context
type AuditHandler struct {
	audit  shared.AuditLog
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit shared.AuditLog, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// EventTypes returns nil: the handler receives all events
func (h *AuditHandler) EventTypes() []string {
	return nil
}

// Handle records the event. Audit failures are logged, not returned.
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	actor := shared.ActorFromContext(ctx)
	details := map[string]any{
		"event_id":     event.EventID().String(),
		"aggregate_id": event.AggregateID().String(),
		"occurred_at":  event.OccurredAt(),
	}
	if payload, err := json.Marshal(event); err == nil {
		var fields map[string]any
		if json.Unmarshal(payload, &fields) == nil {
			details["payload"] = fields
		}
	}

	if err := h.audit.Log(ctx, actor.Username, actor.Role, event.EventType(), event.AggregateType(), details); err != nil {
		h.logger.Warn("audit log write failed",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
	return nil
}

// RefreshHandler tells UI layers which collections an event changed
type RefreshHandler struct {
	notifier shared.RefreshNotifier
	logger   *zap.Logger
}

// NewRefreshHandler creates a new RefreshHandler
func NewRefreshHandler(notifier shared.RefreshNotifier, logger *zap.Logger) *RefreshHandler {
	return &RefreshHandler{notifier: notifier, logger: logger}
}

// EventTypes returns nil: the handler receives all events
func (h *RefreshHandler) EventTypes() []string {
	return nil
}

// aggregateEntities maps aggregate types to their collection for events
// that change only their own aggregate
var aggregateEntities = map[string]shared.EntityType{
	partner.AggregateTypeCustomer: shared.EntityCustomer,
	inventory.AggregateTypeItem:   shared.EntityInventoryItem,
}

// Handle notifies once per touched entity type
func (h *RefreshHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var entities []shared.EntityType
	if touched, ok := event.(shared.TouchedEntities); ok {
		entities = touched.Touched()
	} else if entity, ok := aggregateEntities[event.AggregateType()]; ok {
		entities = []shared.EntityType{entity}
	}
	for _, entity := range entities {
		if err := h.notifier.Notify(ctx, entity); err != nil {
			h.logger.Debug("refresh notification dropped",
				zap.String("entity", entity.String()),
				zap.Error(err))
		}
	}
	return nil
}

var (
	_ shared.EventHandler = (*AuditHandler)(nil)
	_ shared.EventHandler = (*RefreshHandler)(nil)
)
