package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// derivedCustomerColumns are the only columns UpdateAggregates may write.
// Contact details are owned by registration and never touched by the engine.
var derivedCustomerColumns = []string{
	"net_value", "purchase_count", "service_count", "needs_reconcile", "version", "updated_at",
}

// GormCustomerRepository stores customers and their derived aggregates.
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) customers(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.CustomerModel{})
}

func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var row models.CustomerModel
	err := r.db.WithContext(ctx).Take(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError(shared.EntityCustomer, id)
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindAll lists one page of customers. Match searches name, email and
// phone.
func (r *GormCustomerRepository) FindAll(ctx context.Context, q shared.ListQuery) ([]partner.Customer, error) {
	query := r.customers(ctx)
	if needle := strings.TrimSpace(q.Match); needle != "" {
		like := "%" + strings.ToLower(needle) + "%"
		query = query.Where("LOWER(name) LIKE @like OR LOWER(email) LIKE @like OR phone LIKE @like",
			map[string]any{"like": like})
	}

	var rows []models.CustomerModel
	if err := customerColumns.page(query, q).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]partner.Customer, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Insert stores a newly registered customer. A taken email or phone is a
// conflict.
func (r *GormCustomerRepository) Insert(ctx context.Context, customer *partner.Customer) error {
	err := r.db.WithContext(ctx).Create(models.CustomerModelFromDomain(customer)).Error
	if isDuplicateKey(err) {
		return shared.NewConflictError("a customer with this email or phone already exists")
	}
	return err
}

// UpdateAggregates writes the derived columns only when the stored version
// is still the one the engine read, customer.Version-1.
func (r *GormCustomerRepository) UpdateAggregates(ctx context.Context, customer *partner.Customer) error {
	result := r.customers(ctx).
		Where("id = ? AND version = ?", customer.ID, customer.Version-1).
		Select(derivedCustomerColumns).
		Updates(models.CustomerModelFromDomain(customer))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.missingOr(ctx, customer.ID, shared.ErrConcurrencyConflict)
}

func (r *GormCustomerRepository) SetReconcileFlag(ctx context.Context, id uuid.UUID, flagged bool) error {
	result := r.customers(ctx).Where("id = ?", id).Update("needs_reconcile", flagged)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOr(ctx, id, nil)
	}
	return nil
}

func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CustomerModel{})
	return result.RowsAffected, result.Error
}

// missingOr explains an update that matched no rows: NOT_FOUND when the
// customer does not exist, err otherwise.
func (r *GormCustomerRepository) missingOr(ctx context.Context, id uuid.UUID, err error) error {
	var n int64
	if cerr := r.customers(ctx).Where("id = ?", id).Count(&n).Error; cerr != nil {
		return cerr
	}
	if n == 0 {
		return shared.NewNotFoundError(shared.EntityCustomer, id)
	}
	return err
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
