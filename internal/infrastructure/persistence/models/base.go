// Package models holds the GORM persistence models. Domain entities stay free
// of storage tags; each model converts to and from its entity.
package models

import (
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel carries the identity columns shared by every table.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) toIdentity() shared.Identity {
	return shared.Identity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) fromIdentity(id shared.Identity) {
	m.ID, m.CreatedAt, m.UpdatedAt = id.ID, id.CreatedAt, id.UpdatedAt
}

// AggregateModel adds the optimistic-lock version column used by the
// customer, item, sale and service tables. Repositories update with
// "WHERE version = ?" against the value they loaded.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// toAggregate rebuilds the embedded aggregate with no pending events;
// events are never persisted.
func (m *AggregateModel) toAggregate() shared.Aggregate {
	return shared.Aggregate{Identity: m.toIdentity(), Version: m.Version}
}

func (m *AggregateModel) fromAggregate(a shared.Aggregate) {
	m.fromIdentity(a.Identity)
	m.Version = a.Version
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&CustomerModel{},
		&InventoryItemModel{},
		&SaleModel{},
		&ServiceModel{},
		&InvoiceModel{},
		&ExpenseModel{},
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
