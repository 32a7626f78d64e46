package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Sale, error)

	Insert(ctx context.Context, sale *Sale) error

	// Delete removes a sale and returns the number of rows removed. Zero
	// means another caller already removed it.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)

	// CountByCustomer counts the sales referencing a customer
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// SumTotalByCustomer sums TotalAmount over a customer's sales
	SumTotalByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)

	// AttachInvoice links the generated invoice and marks it issued
	AttachInvoice(ctx context.Context, id, invoiceID uuid.UUID) error

	// FindPendingInvoices lists sales whose invoice has not been issued
	FindPendingInvoices(ctx context.Context, limit int) ([]Sale, error)
}
