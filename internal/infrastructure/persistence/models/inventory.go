package models

import (
	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// InventoryItemModel is the persistence model for the inventory Item entity.
type InventoryItemModel struct {
	AggregateModel
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_inventory_items_code"`
	Brand          string          `gorm:"type:varchar(100)"`
	Model          string          `gorm:"type:varchar(100)"`
	Type           string          `gorm:"type:varchar(50)"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity       int             `gorm:"not null;default:0;check:chk_inventory_items_quantity,quantity >= 0"`
	Status         string          `gorm:"type:varchar(20);not null;default:'sold';index"`
	NeedsReconcile bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain Item entity.
func (m *InventoryItemModel) ToDomain() *inventory.Item {
	return &inventory.Item{
		Aggregate:      m.toAggregate(),
		Code:           m.Code,
		Brand:          m.Brand,
		Model:          m.Model,
		Type:           m.Type,
		Price:          m.Price,
		Quantity:       m.Quantity,
		Status:         inventory.ItemStatus(m.Status),
		NeedsReconcile: m.NeedsReconcile,
	}
}

// FromDomain populates the persistence model from a domain Item entity.
func (m *InventoryItemModel) FromDomain(i *inventory.Item) {
	m.fromAggregate(i.Aggregate)
	m.Code = i.Code
	m.Brand = i.Brand
	m.Model = i.Model
	m.Type = i.Type
	m.Price = i.Price
	m.Quantity = i.Quantity
	m.Status = string(i.Status)
	m.NeedsReconcile = i.NeedsReconcile
}

// InventoryItemModelFromDomain creates a new persistence model from a domain Item entity.
func InventoryItemModelFromDomain(i *inventory.Item) *InventoryItemModel {
	m := &InventoryItemModel{}
	m.FromDomain(i)
	return m
}
