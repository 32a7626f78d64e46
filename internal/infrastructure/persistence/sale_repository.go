package persistence

import (
	"context"
	"errors"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/domain/trade"
	"github.com/chronoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(shared.EntitySale, id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists a customer's sales, newest first
func (r *GormSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]trade.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("sold_at DESC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

// Insert creates a sale
func (r *GormSaleRepository) Insert(ctx context.Context, sale *trade.Sale) error {
	if err := r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewConflictError("sale %s already exists", sale.ID)
		}
		return err
	}
	return nil
}

// Delete removes a sale and reports how many rows went away
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

// CountByCustomer counts the sales referencing a customer
func (r *GormSaleRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// SumTotalByCustomer sums total_amount over a customer's sales
func (r *GormSaleRepository) SumTotalByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("customer_id = ?", customerID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return shared.RoundAmount(result.Total), nil
}

// AttachInvoice links the generated invoice and marks it issued
func (r *GormSaleRepository) AttachInvoice(ctx context.Context, id, invoiceID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"invoice_id":     invoiceID,
			"invoice_status": string(billing.DocumentStatusIssued),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(shared.EntitySale, id)
	}
	return nil
}

// FindPendingInvoices lists the oldest sales still owing an invoice
func (r *GormSaleRepository) FindPendingInvoices(ctx context.Context, limit int) ([]trade.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("invoice_status = ?", string(billing.DocumentStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

func toSales(saleModels []models.SaleModel) []trade.Sale {
	sales := make([]trade.Sale, len(saleModels))
	for i, model := range saleModels {
		sales[i] = *model.ToDomain()
	}
	return sales
}

// Ensure GormSaleRepository implements SaleRepository
var _ trade.SaleRepository = (*GormSaleRepository)(nil)
