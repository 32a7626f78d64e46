package persistence

import (
	"context"
	"errors"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(shared.EntityInvoice, id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRelated finds the invoice of a type issued for an entity
func (r *GormInvoiceRepository) FindByRelated(ctx context.Context, relatedID uuid.UUID, invoiceType billing.InvoiceType) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("related_id = ? AND type = ?", relatedID, string(invoiceType)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(shared.EntityInvoice, relatedID)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Insert stores a new invoice
func (r *GormInvoiceRepository) Insert(ctx context.Context, invoice *billing.Invoice) error {
	if err := r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewConflictError("invoice %s already exists", invoice.InvoiceNo)
		}
		return err
	}
	return nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
