package persistence

import (
	"context"
	"errors"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/repair"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormServiceRepository implements ServiceRepository using GORM
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// FindByID finds a ticket by its ID
func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*repair.Service, error) {
	var model models.ServiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(shared.EntityService, id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists a customer's tickets, newest first
func (r *GormServiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]repair.Service, error) {
	var serviceModels []models.ServiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&serviceModels).Error; err != nil {
		return nil, err
	}
	return toServices(serviceModels), nil
}

// Insert creates a ticket
func (r *GormServiceRepository) Insert(ctx context.Context, service *repair.Service) error {
	if err := r.db.WithContext(ctx).Create(models.ServiceModelFromDomain(service)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewConflictError("service %s already exists", service.ID)
		}
		return err
	}
	return nil
}

// UpdateLifecycle writes the lifecycle columns guarded by the expected status
func (r *GormServiceRepository) UpdateLifecycle(ctx context.Context, service *repair.Service, expected repair.Status) error {
	result := r.db.WithContext(ctx).Model(&models.ServiceModel{}).
		Where("id = ? AND status = ?", service.ID, string(expected)).
		Updates(map[string]any{
			"status":                    string(service.Status),
			"cost":                      service.Cost,
			"started_at":                service.StartedAt,
			"held_at":                   service.HeldAt,
			"completed_at":              service.CompletedAt,
			"actual_delivery":           service.ActualDelivery,
			"completion_description":    service.CompletionDescription,
			"warranty_period":           service.WarrantyPeriod,
			"attachment_key":            service.AttachmentKey,
			"completion_invoice_status": string(service.CompletionInvoiceStatus),
			"version":                   service.Version,
			"updated_at":                service.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, service.ID); err != nil {
			return err
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a ticket and reports how many rows went away
func (r *GormServiceRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.ServiceModel{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

// CountByCustomer counts the tickets referencing a customer
func (r *GormServiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ServiceModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// SumCompletedCostByCustomer sums the final cost of completed tickets
func (r *GormServiceRepository) SumCompletedCostByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.ServiceModel{}).
		Select("COALESCE(SUM(cost), 0) AS total").
		Where("customer_id = ? AND status = ?", customerID, string(repair.StatusCompleted)).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return shared.RoundAmount(result.Total), nil
}

// AttachAcknowledgement links the acknowledgement receipt
func (r *GormServiceRepository) AttachAcknowledgement(ctx context.Context, id, invoiceID uuid.UUID) error {
	return r.attach(ctx, id, map[string]any{
		"acknowledgement_invoice_id": invoiceID,
		"acknowledgement_status":     string(billing.DocumentStatusIssued),
	})
}

// AttachCompletionInvoice links the completion invoice
func (r *GormServiceRepository) AttachCompletionInvoice(ctx context.Context, id, invoiceID uuid.UUID) error {
	return r.attach(ctx, id, map[string]any{
		"completion_invoice_id":     invoiceID,
		"completion_invoice_status": string(billing.DocumentStatusIssued),
	})
}

func (r *GormServiceRepository) attach(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.ServiceModel{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(shared.EntityService, id)
	}
	return nil
}

// FindPendingDocuments lists the oldest tickets owing a document
func (r *GormServiceRepository) FindPendingDocuments(ctx context.Context, limit int) ([]repair.Service, error) {
	pending := string(billing.DocumentStatusPending)
	var serviceModels []models.ServiceModel
	if err := r.db.WithContext(ctx).
		Where("acknowledgement_status = ? OR completion_invoice_status = ?", pending, pending).
		Order("created_at ASC").
		Limit(limit).
		Find(&serviceModels).Error; err != nil {
		return nil, err
	}
	return toServices(serviceModels), nil
}

func toServices(serviceModels []models.ServiceModel) []repair.Service {
	services := make([]repair.Service, len(serviceModels))
	for i, model := range serviceModels {
		services[i] = *model.ToDomain()
	}
	return services
}

// Ensure GormServiceRepository implements ServiceRepository
var _ repair.ServiceRepository = (*GormServiceRepository)(nil)
