package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxRenumberAttempts = 5

// LocalInvoiceGenerator issues invoices by storing them in the shop's own
// invoice table. It is idempotent per related entity and invoice type.
type LocalInvoiceGenerator struct {
	invoices domain.InvoiceRepository
	now      func() time.Time
	logger   *zap.Logger
}

// NewLocalInvoiceGenerator creates a new generator
func NewLocalInvoiceGenerator(invoices domain.InvoiceRepository, logger *zap.Logger) *LocalInvoiceGenerator {
	return &LocalInvoiceGenerator{
		invoices: invoices,
		now:      time.Now,
		logger:   logger,
	}
}

// Generate returns the id of the invoice for req, creating it if needed
func (g *LocalInvoiceGenerator) Generate(ctx context.Context, req domain.RelatedEntity) (uuid.UUID, error) {
	if id, ok, err := g.existing(ctx, req); err != nil || ok {
		return id, err
	}

	inv, err := domain.NewInvoice(req, g.now())
	if err != nil {
		return uuid.Nil, err
	}

	for attempt := 0; attempt < maxRenumberAttempts; attempt++ {
		err = g.invoices.Insert(ctx, inv)
		if err == nil {
			g.logger.Debug("invoice issued",
				zap.String("invoice_no", inv.InvoiceNo),
				zap.String("type", string(inv.Type)),
				zap.String("related_id", inv.RelatedID.String()))
			return inv.ID, nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return uuid.Nil, fmt.Errorf("insert invoice: %w", err)
		}
		// Either another dispatch issued this document first or the number
		// collided.
		if id, ok, ferr := g.existing(ctx, req); ferr != nil || ok {
			return id, ferr
		}
		inv.Renumber(g.now())
	}
	return uuid.Nil, fmt.Errorf("insert invoice: %w", err)
}

func (g *LocalInvoiceGenerator) existing(ctx context.Context, req domain.RelatedEntity) (uuid.UUID, bool, error) {
	inv, err := g.invoices.FindByRelated(ctx, req.ID, req.Kind.InvoiceType())
	if err == nil {
		return inv.ID, true, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	return uuid.Nil, false, err
}
