package billing

import (
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind is the kind of side-effect document generated for a business event
type DocumentKind string

const (
	KindSalesInvoice             DocumentKind = "sales_invoice"
	KindServiceAcknowledgement   DocumentKind = "service_acknowledgement"
	KindServiceCompletionInvoice DocumentKind = "service_completion_invoice"
)

// IsValid checks if the kind is known
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindSalesInvoice, KindServiceAcknowledgement, KindServiceCompletionInvoice:
		return true
	}
	return false
}

// InvoiceType maps the document kind to the stored invoice type
func (k DocumentKind) InvoiceType() InvoiceType {
	switch k {
	case KindServiceAcknowledgement:
		return InvoiceTypeServiceAcknowledgement
	case KindServiceCompletionInvoice:
		return InvoiceTypeServiceCompletion
	default:
		return InvoiceTypeSales
	}
}

// RelatedType returns the entity type the document is attached to
func (k DocumentKind) RelatedType() shared.EntityType {
	if k == KindSalesInvoice {
		return shared.EntitySale
	}
	return shared.EntityService
}

// DocumentStatus tracks whether the document for an entity has been issued.
// A pending status is the explicit marker the reconciler scans for.
type DocumentStatus string

const (
	DocumentStatusNone    DocumentStatus = "none"
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusIssued  DocumentStatus = "issued"
)

// RelatedEntity is what a document is generated for
type RelatedEntity struct {
	Kind       DocumentKind
	ID         uuid.UUID
	CustomerID uuid.UUID
	Amount     decimal.Decimal
}

// Type returns the related entity type
func (r RelatedEntity) Type() shared.EntityType {
	return r.Kind.RelatedType()
}
