package billing

import (
	"regexp"
	"testing"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKind(t *testing.T) {
	assert.Equal(t, InvoiceTypeSales, KindSalesInvoice.InvoiceType())
	assert.Equal(t, InvoiceTypeServiceAcknowledgement, KindServiceAcknowledgement.InvoiceType())
	assert.Equal(t, InvoiceTypeServiceCompletion, KindServiceCompletionInvoice.InvoiceType())

	assert.Equal(t, shared.EntitySale, KindSalesInvoice.RelatedType())
	assert.Equal(t, shared.EntityService, KindServiceAcknowledgement.RelatedType())
	assert.False(t, DocumentKind("receipt").IsValid())
}

func TestNewInvoice(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	related := RelatedEntity{
		Kind:       KindServiceCompletionInvoice,
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Amount:     decimal.NewFromInt(500),
	}

	inv, err := NewInvoice(related, issuedAt)
	require.NoError(t, err)
	assert.Equal(t, InvoiceTypeServiceCompletion, inv.Type)
	assert.Equal(t, shared.EntityService, inv.RelatedType)
	assert.Equal(t, InvoiceStatusIssued, inv.Status)
	assert.Regexp(t, regexp.MustCompile(`^SVC-20260314-[0-9A-F]{6}$`), inv.InvoiceNo)

	prev := inv.InvoiceNo
	inv.Renumber(issuedAt)
	assert.NotEqual(t, prev, inv.InvoiceNo)

	_, err = NewInvoice(RelatedEntity{Kind: KindSalesInvoice}, issuedAt)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewInvoice(RelatedEntity{Kind: "bogus", ID: uuid.New()}, issuedAt)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
