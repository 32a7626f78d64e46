// Package handler holds the operations endpoint handlers.
package handler

import (
	"errors"
	"net/http"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes that do not come from the domain
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeInternal    = "INTERNAL_ERROR"
	CodeUnavailable = "UNAVAILABLE"
)

var statusByCode = map[string]int{
	shared.CodeValidation:          http.StatusBadRequest,
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeConflict:            http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeInsufficientStock:   http.StatusUnprocessableEntity,
	shared.CodeInvalidTransition:   http.StatusUnprocessableEntity,
	shared.CodePartialFailure:      http.StatusInternalServerError,
	CodeBadRequest:                 http.StatusBadRequest,
	CodeUnavailable:                http.StatusServiceUnavailable,
}

// HTTPStatus maps an error code to its status, 500 when unknown
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func fail(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatus(code), Response{
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: c.GetString(middleware.RequestIDKey),
		},
	})
}

// failWith replies with the domain code of err. Errors without one are
// attached to the context for the request log and reported as internal.
func failWith(c *gin.Context, err error) {
	code := shared.ErrorCode(err)
	if code == "" {
		_ = c.Error(err)
		fail(c, CodeInternal, "internal error")
		return
	}
	message := err.Error()
	var de *shared.DomainError
	if code != shared.CodePartialFailure && errors.As(err, &de) {
		message = de.Message
	}
	fail(c, code, message)
}
