package billing

import (
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeInvoice is the aggregate type for invoices
const AggregateTypeInvoice = "Invoice"

// EventTypeDocumentIssued is published when a generated document is linked
// back to its sale or service
const EventTypeDocumentIssued = "document.issued"

// DocumentIssuedEvent records that the document owed for an entity exists
type DocumentIssuedEvent struct {
	shared.EventHeader
	Kind       DocumentKind      `json:"kind"`
	DocumentID uuid.UUID         `json:"document_id"`
	RelatedID  uuid.UUID         `json:"related_id"`
	Related    shared.EntityType `json:"related_type"`
}

// NewDocumentIssuedEvent creates a new DocumentIssuedEvent
func NewDocumentIssuedEvent(related RelatedEntity, documentID uuid.UUID) *DocumentIssuedEvent {
	return &DocumentIssuedEvent{
		EventHeader: shared.NewEventHeader(EventTypeDocumentIssued, AggregateTypeInvoice, documentID),
		Kind:        related.Kind,
		DocumentID:  documentID,
		RelatedID:   related.ID,
		Related:     related.Type(),
	}
}

// Touched implements shared.TouchedEntities
func (e *DocumentIssuedEvent) Touched() []shared.EntityType {
	return []shared.EntityType{shared.EntityInvoice, e.Related}
}

// DeduplicationKey implements shared.Deduplicated. Every dispatch that links
// the same document yields the same key.
func (e *DocumentIssuedEvent) DeduplicationKey() string {
	return EventTypeDocumentIssued + ":" + e.DocumentID.String()
}
