package consistency

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/repair"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var serviceEntities = []shared.EntityType{shared.EntityService, shared.EntityCustomer}

// RecordService opens a pending ticket and counts it on the customer. The
// estimate does not enter the net value until the ticket completes.
func (e *Engine) RecordService(ctx context.Context, req RecordServiceRequest) (svc *repair.Service, err error) {
	defer func() { e.record(ctx, "service.record", err) }()

	if err := e.validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := e.store.Customers().FindByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	svc, err = repair.NewService(repair.ServiceInput{
		CustomerID:         req.CustomerID,
		WatchBrand:         req.WatchBrand,
		WatchModel:         req.WatchModel,
		SerialNumber:       req.SerialNumber,
		ProblemDescription: req.ProblemDescription,
		EstimatedCost:      req.EstimatedCost,
		ExpectedDelivery:   req.ExpectedDelivery,
	})
	if err != nil {
		return nil, err
	}

	var refreshed []*partner.Customer
	plan := uow.Plan{Event: "service.record"}
	plan.Add(
		e.insertServiceStep(svc),
		e.refreshStep(&refreshed, svc.CustomerID),
	)
	if err := e.run(ctx, plan, affected{customers: []uuid.UUID{svc.CustomerID}}); err != nil {
		return nil, err
	}

	e.committed(ctx, serviceEntities, withCustomerEvents(refreshed, repair.NewServiceRecordedEvent(svc))...)

	out := e.dispatch(ctx, svc.AcknowledgementRequest())
	if out.Issued() {
		docID := out.DocumentID
		svc.AcknowledgementInvoiceID = &docID
		svc.AcknowledgementStatus = billing.DocumentStatusIssued
	}
	return svc, nil
}

// TransitionService moves a ticket through its lifecycle. Completing a
// ticket fixes its cost, adds it to the customer's net value and requests the
// completion invoice. Input errors are reported before anything is written.
func (e *Engine) TransitionService(ctx context.Context, req TransitionServiceRequest) (svc *repair.Service, err error) {
	defer func() { e.record(ctx, "service.transition", err) }()

	if err := e.validateRequest(req); err != nil {
		return nil, err
	}
	target := repair.Status(req.Status)
	current, err := e.store.Services().FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(target) {
		return nil, shared.NewInvalidTransitionError(current.Status.String(), target.String())
	}

	var details *repair.CompletionDetails
	if target == repair.StatusCompleted {
		details, err = e.completionDetails(req.Completion)
		if err != nil {
			return nil, err
		}
		if req.Completion.Attachment != nil {
			key, err := e.storeAttachment(ctx, current.ID, req.Completion.Attachment)
			if err != nil {
				return nil, err
			}
			details.AttachmentKey = key
		}
	}

	previous := *current
	svc = current
	if err := svc.TransitionTo(target, details, e.now()); err != nil {
		e.discardAttachment(ctx, details)
		return nil, err
	}

	var refreshed []*partner.Customer
	plan := uow.Plan{Event: "service.transition"}
	plan.Add(uow.Step{
		Name: "update_lifecycle",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			err := repos.Services().UpdateLifecycle(ctx, svc, previous.Status)
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return shared.NewInvalidTransitionError(previous.Status.String(), target.String())
			}
			return err
		},
		Compensate: func(ctx context.Context, repos uow.Repositories) error {
			restore := previous
			return repos.Services().UpdateLifecycle(ctx, &restore, svc.Status)
		},
	})
	if svc.IsCompleted() {
		plan.Add(e.refreshStep(&refreshed, svc.CustomerID))
	}
	if err := e.run(ctx, plan, affected{customers: []uuid.UUID{svc.CustomerID}}); err != nil {
		e.discardAttachment(ctx, details)
		return nil, err
	}

	events := svc.DrainEvents()
	for _, c := range refreshed {
		events = append(events, c.DrainEvents()...)
	}
	entities := []shared.EntityType{shared.EntityService}
	if svc.IsCompleted() {
		entities = serviceEntities
	}
	e.committed(ctx, entities, events...)

	if svc.IsCompleted() {
		out := e.dispatch(ctx, svc.CompletionRequest())
		if out.Issued() {
			docID := out.DocumentID
			svc.CompletionInvoiceID = &docID
			svc.CompletionInvoiceStatus = billing.DocumentStatusIssued
		}
	}
	return svc, nil
}

// ReverseService deletes a ticket and refreshes the customer. The cost of a
// completed ticket leaves the net value with it.
func (e *Engine) ReverseService(ctx context.Context, serviceID uuid.UUID) (err error) {
	defer func() { e.record(ctx, "service.reverse", err) }()

	svc, err := e.store.Services().FindByID(ctx, serviceID)
	if err != nil {
		return err
	}

	var refreshed []*partner.Customer
	plan := uow.Plan{Event: "service.reverse"}
	plan.Add(
		uow.Step{
			Name: "delete_service",
			Apply: func(ctx context.Context, repos uow.Repositories) error {
				n, err := repos.Services().Delete(ctx, svc.ID)
				if err != nil {
					return err
				}
				if n == 0 {
					return shared.NewNotFoundError(shared.EntityService, svc.ID)
				}
				return nil
			},
			Compensate: func(ctx context.Context, repos uow.Repositories) error {
				if err := repos.Services().Insert(ctx, svc); err != nil {
					return err
				}
				return e.rederive(ctx, repos, svc.CustomerID)
			},
		},
		e.refreshStep(&refreshed, svc.CustomerID),
	)
	if err := e.run(ctx, plan, affected{customers: []uuid.UUID{svc.CustomerID}}); err != nil {
		return err
	}

	e.committed(ctx, serviceEntities, withCustomerEvents(refreshed, repair.NewServiceReversedEvent(svc))...)
	return nil
}

func (e *Engine) insertServiceStep(svc *repair.Service) uow.Step {
	return uow.Step{
		Name: "insert_service",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			return repos.Services().Insert(ctx, svc)
		},
		Compensate: func(ctx context.Context, repos uow.Repositories) error {
			if _, err := repos.Services().Delete(ctx, svc.ID); err != nil {
				return err
			}
			return e.rederive(ctx, repos, svc.CustomerID)
		},
	}
}

func (e *Engine) completionDetails(req *CompletionRequest) (*repair.CompletionDetails, error) {
	if req == nil {
		return nil, shared.NewValidationError("completion details are required")
	}
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}
	details := &repair.CompletionDetails{
		Description:    req.Description,
		FinalCost:      req.FinalCost,
		WarrantyPeriod: req.WarrantyPeriod,
		ActualDelivery: req.ActualDelivery,
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}
	return details, nil
}

func (e *Engine) storeAttachment(ctx context.Context, serviceID uuid.UUID, a *Attachment) (string, error) {
	if e.attachments == nil {
		return "", shared.NewValidationError("attachments are not enabled")
	}
	if len(a.Data) == 0 {
		return "", shared.NewValidationError("attachment is empty")
	}
	key := fmt.Sprintf("services/%s/%s-%s", serviceID, uuid.NewString()[:8], path.Base(a.FileName))
	stored, err := e.attachments.Put(ctx, key, a.ContentType, bytes.NewReader(a.Data), int64(len(a.Data)))
	if err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	return stored, nil
}

// discardAttachment removes an uploaded attachment whose transition failed
func (e *Engine) discardAttachment(ctx context.Context, details *repair.CompletionDetails) {
	if details == nil || details.AttachmentKey == "" || e.attachments == nil {
		return
	}
	if err := e.attachments.Delete(context.WithoutCancel(ctx), details.AttachmentKey); err != nil {
		e.logger.Warn("failed to remove orphaned attachment",
			zap.String("key", details.AttachmentKey), zap.Error(err))
	}
}
