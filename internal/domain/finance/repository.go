package finance

import (
	"context"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	FindAll(ctx context.Context, q shared.ListQuery) ([]Expense, error)
	Insert(ctx context.Context, expense *Expense) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
