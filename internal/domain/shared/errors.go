package shared

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that
// errors.Is(err, ErrNotFound) matches errors built with a custom message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodePartialFailure      = "PARTIAL_FAILURE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Common domain errors
var (
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict            = NewDomainError(CodeConflict, "Resource already exists")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Status transition not allowed")
	ErrPartialFailure      = NewDomainError(CodePartialFailure, "Compensation failed, manual repair required")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// NewValidationError creates a validation error with a custom message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a not-found error naming the missing entity
func NewNotFoundError(entity EntityType, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

// NewConflictError creates a uniqueness conflict error
func NewConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// NewInsufficientStockError reports how much stock was requested and available
func NewInsufficientStockError(code string, requested, available int) *DomainError {
	return NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for item %s: requested %d, available %d", code, requested, available))
}

// NewInvalidTransitionError reports a rejected state machine transition
func NewInvalidTransitionError(from, to string) *DomainError {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// PartialFailureError is returned when a unit of work failed and one of its
// compensating writes failed too. The store is left inconsistent and the
// event must not be retried automatically.
type PartialFailureError struct {
	Event              string
	FailedStep         string
	Cause              error
	CompensationErrors []error
	Before             map[string]any
	After              map[string]any
}

// Error implements the error interface
func (e *PartialFailureError) Error() string {
	msgs := make([]string, 0, len(e.CompensationErrors))
	for _, err := range e.CompensationErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("partial failure in %s at step %s: %v (compensation: %s)",
		e.Event, e.FailedStep, e.Cause, strings.Join(msgs, "; "))
}

// Unwrap exposes the original cause
func (e *PartialFailureError) Unwrap() error {
	return e.Cause
}

// Is matches ErrPartialFailure
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

// IsRetryable reports whether an automated retry of the failed operation is safe.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrPartialFailure),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidTransition):
		return false
	}
	return true
}

// ErrorCode extracts the domain code from err, or "" for non-domain errors.
func ErrorCode(err error) string {
	if errors.Is(err, ErrPartialFailure) {
		return CodePartialFailure
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
