package persistence

import (
	"context"
	"errors"

	"github.com/chronoshop/backend/internal/domain/finance"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(shared.EntityExpense, id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists expenses, limited to one category when Match is set
func (r *GormExpenseRepository) FindAll(ctx context.Context, q shared.ListQuery) ([]finance.Expense, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{})
	if q.Match != "" {
		query = query.Where("category = ?", q.Match)
	}
	query = expenseColumns.page(query, q)

	var expenseModels []models.ExpenseModel
	if err := query.Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	expenses := make([]finance.Expense, len(expenseModels))
	for i, model := range expenseModels {
		expenses[i] = *model.ToDomain()
	}
	return expenses, nil
}

// Insert stores an expense
func (r *GormExpenseRepository) Insert(ctx context.Context, expense *finance.Expense) error {
	return r.db.WithContext(ctx).Create(models.ExpenseModelFromDomain(expense)).Error
}

// Delete removes an expense
func (r *GormExpenseRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.ExpenseModel{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

// Ensure GormExpenseRepository implements ExpenseRepository
var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
