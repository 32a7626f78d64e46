package repair

import (
	"strings"
	"time"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxWarrantyMonths is the longest warranty a completed service may carry
const MaxWarrantyMonths = 60

// Service is a repair ticket for a customer's watch.
//
// Cost is an estimate until the ticket completes; completion replaces it with
// the final cost, which from then on counts toward the customer's net value.
type Service struct {
	shared.Aggregate
	CustomerID         uuid.UUID
	WatchBrand         string
	WatchModel         string
	SerialNumber       string
	ProblemDescription string
	Cost               decimal.Decimal
	Status             Status

	ExpectedDelivery *time.Time
	StartedAt        *time.Time
	HeldAt           *time.Time
	CompletedAt      *time.Time
	ActualDelivery   *time.Time

	CompletionDescription string
	WarrantyPeriod        int
	AttachmentKey         string

	AcknowledgementInvoiceID *uuid.UUID
	AcknowledgementStatus    billing.DocumentStatus
	CompletionInvoiceID      *uuid.UUID
	CompletionInvoiceStatus  billing.DocumentStatus
}

// ServiceInput carries the fields needed to open a ticket
type ServiceInput struct {
	CustomerID         uuid.UUID
	WatchBrand         string
	WatchModel         string
	SerialNumber       string
	ProblemDescription string
	EstimatedCost      decimal.Decimal
	ExpectedDelivery   *time.Time
}

// NewService opens a pending ticket with a pending acknowledgement
func NewService(in ServiceInput) (*Service, error) {
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("service requires a customer")
	}
	if strings.TrimSpace(in.WatchBrand) == "" {
		return nil, shared.NewValidationError("watch brand cannot be empty")
	}
	if in.EstimatedCost.IsNegative() {
		return nil, shared.NewValidationError("estimated cost cannot be negative")
	}

	return &Service{
		Aggregate:               shared.NewAggregate(),
		CustomerID:              in.CustomerID,
		WatchBrand:              strings.TrimSpace(in.WatchBrand),
		WatchModel:              strings.TrimSpace(in.WatchModel),
		SerialNumber:            strings.TrimSpace(in.SerialNumber),
		ProblemDescription:      strings.TrimSpace(in.ProblemDescription),
		Cost:                    shared.RoundAmount(in.EstimatedCost),
		Status:                  StatusPending,
		ExpectedDelivery:        in.ExpectedDelivery,
		AcknowledgementStatus:   billing.DocumentStatusPending,
		CompletionInvoiceStatus: billing.DocumentStatusNone,
	}, nil
}

// CompletionDetails is required to move a ticket to completed
type CompletionDetails struct {
	Description    string
	FinalCost      decimal.Decimal
	WarrantyPeriod int
	ActualDelivery *time.Time
	AttachmentKey  string
}

// Validate checks the completion payload
func (d *CompletionDetails) Validate() error {
	if d == nil {
		return shared.NewValidationError("completion details are required")
	}
	if strings.TrimSpace(d.Description) == "" {
		return shared.NewValidationError("completion description is required")
	}
	if d.FinalCost.IsNegative() {
		return shared.NewValidationError("final cost cannot be negative")
	}
	if d.WarrantyPeriod < 0 || d.WarrantyPeriod > MaxWarrantyMonths {
		return shared.NewValidationError("warranty period must be between 0 and %d months", MaxWarrantyMonths)
	}
	return nil
}

// IsCompleted reports whether the ticket is closed
func (s *Service) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// RealizedRevenue is the amount the ticket contributes to customer net value
func (s *Service) RealizedRevenue() decimal.Decimal {
	if s.IsCompleted() {
		return s.Cost
	}
	return decimal.Zero
}

// TransitionTo moves the ticket to target and applies the transition side
// effects. Nothing is modified when an error is returned.
func (s *Service) TransitionTo(target Status, details *CompletionDetails, now time.Time) error {
	if !target.IsValid() {
		return shared.NewValidationError("unknown service status %q", target)
	}
	if !s.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(s.Status.String(), target.String())
	}
	if target == StatusCompleted {
		if err := details.Validate(); err != nil {
			return err
		}
	}

	from := s.Status
	at := now
	switch target {
	case StatusInProgress:
		if from == StatusPending {
			s.StartedAt = &at
		}
	case StatusOnHold:
		s.HeldAt = &at
	case StatusCompleted:
		s.CompletedAt = &at
		delivery := details.ActualDelivery
		if delivery == nil {
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			delivery = &today
		}
		s.ActualDelivery = delivery
		s.Cost = shared.RoundAmount(details.FinalCost)
		s.CompletionDescription = strings.TrimSpace(details.Description)
		s.WarrantyPeriod = details.WarrantyPeriod
		if details.AttachmentKey != "" {
			s.AttachmentKey = details.AttachmentKey
		}
		s.CompletionInvoiceStatus = billing.DocumentStatusPending
	}

	s.Status = target
	s.UpdatedAt = now
	s.BumpVersion()
	s.Record(NewServiceStatusChangedEvent(s, from))
	if target == StatusCompleted {
		s.Record(NewServiceCompletedEvent(s))
	}
	return nil
}

// AcknowledgementRequest describes the receipt generated when a ticket opens
func (s *Service) AcknowledgementRequest() billing.RelatedEntity {
	return billing.RelatedEntity{
		Kind:       billing.KindServiceAcknowledgement,
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Amount:     s.Cost,
	}
}

// CompletionRequest describes the invoice generated when a ticket completes
func (s *Service) CompletionRequest() billing.RelatedEntity {
	return billing.RelatedEntity{
		Kind:       billing.KindServiceCompletionInvoice,
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Amount:     s.Cost,
	}
}

// PendingDocuments returns the document requests still owed for the ticket
func (s *Service) PendingDocuments() []billing.RelatedEntity {
	var pending []billing.RelatedEntity
	if s.AcknowledgementStatus == billing.DocumentStatusPending {
		pending = append(pending, s.AcknowledgementRequest())
	}
	if s.IsCompleted() && s.CompletionInvoiceStatus == billing.DocumentStatusPending {
		pending = append(pending, s.CompletionRequest())
	}
	return pending
}
