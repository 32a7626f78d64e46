package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInventoryItemRepository implements ItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// FindByID finds an item by its ID
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(shared.EntityInventoryItem, id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds an item by its unique code
func (r *GormInventoryItemRepository) FindByCode(ctx context.Context, code string) (*inventory.Item, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(shared.EntityInventoryItem, code)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Insert creates an item
func (r *GormInventoryItemRepository) Insert(ctx context.Context, item *inventory.Item) error {
	model := models.InventoryItemModelFromDomain(item)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewConflictError("item code %s already exists", item.Code)
		}
		return err
	}
	return nil
}

// AdjustQuantity applies delta in a single conditional UPDATE so that two
// concurrent decrements can never take the quantity below zero. The status
// column is re-derived in the same statement.
func (r *GormInventoryItemRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	result := r.db.WithContext(ctx).Model(&models.InventoryItemModel{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity + ?", delta),
			"status": gorm.Expr("CASE WHEN quantity + ? > 0 THEN ? ELSE ? END",
				delta, string(inventory.ItemStatusAvailable), string(inventory.ItemStatusSold)),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		if isCheckViolation(result.Error) {
			return 0, shared.ErrInsufficientStock
		}
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		item, err := r.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return item.Quantity, shared.NewInsufficientStockError(item.Code, -delta, item.Quantity)
	}

	var quantities []int
	if err := r.db.WithContext(ctx).Model(&models.InventoryItemModel{}).
		Where("id = ?", id).
		Pluck("quantity", &quantities).Error; err != nil {
		return 0, err
	}
	if len(quantities) == 0 {
		return 0, shared.NewNotFoundError(shared.EntityInventoryItem, id)
	}
	return quantities[0], nil
}

// SetReconcileFlag sets or clears the needs_reconcile marker
func (r *GormInventoryItemRepository) SetReconcileFlag(ctx context.Context, id uuid.UUID, flagged bool) error {
	result := r.db.WithContext(ctx).Model(&models.InventoryItemModel{}).
		Where("id = ?", id).
		Update("needs_reconcile", flagged)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(shared.EntityInventoryItem, id)
	}
	return nil
}

// Delete removes an item
func (r *GormInventoryItemRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.InventoryItemModel{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

// Ensure GormInventoryItemRepository implements ItemRepository
var _ inventory.ItemRepository = (*GormInventoryItemRepository)(nil)
