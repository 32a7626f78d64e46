package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chronoshop/backend/internal/application/consistency"
	"github.com/chronoshop/backend/internal/application/document"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/interfaces/http/handler"
	"github.com/chronoshop/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) GetCustomerAggregates(ctx context.Context, id uuid.UUID) (*partner.Aggregates, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Aggregates), args.Error(1)
}

func (m *mockEngine) VerifyCustomer(ctx context.Context, id uuid.UUID) (consistency.Drift, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(consistency.Drift), args.Error(1)
}

func (m *mockEngine) RecomputeCustomerNetValue(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *mockEngine) AuditAggregates(ctx context.Context) ([]consistency.Drift, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]consistency.Drift), args.Error(1)
}

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) RunOnce(ctx context.Context) (document.ReconcileResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(document.ReconcileResult), args.Error(1)
}

type envelope struct {
	Success bool               `json:"success"`
	Data    json.RawMessage    `json:"data"`
	Error   *handler.ErrorInfo `json:"error"`
}

func newServer(engine handler.AggregateOps, rec handler.DocumentReconciler, checks map[string]handler.HealthCheck) *gin.Engine {
	ops := handler.NewOpsHandler(engine, rec, checks)
	return router.New(router.Config{ServiceName: "chronoshop-test", Mode: gin.TestMode}, ops, nil)
}

func do(t *testing.T, srv *gin.Engine, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestOpsHandler_GetAggregates(t *testing.T) {
	engine := new(mockEngine)
	id := uuid.New()
	engine.On("GetCustomerAggregates", mock.Anything, id).Return(&partner.Aggregates{
		NetValue:      decimal.NewFromInt(1250),
		PurchaseCount: 2,
		ServiceCount:  1,
	}, nil)

	w, body := do(t, newServer(engine, nil, nil), http.MethodGet, "/api/v1/customers/"+id.String()+"/aggregates")

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)
	var got handler.AggregatesResponse
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, id, got.CustomerID)
	assert.True(t, decimal.NewFromInt(1250).Equal(got.NetValue))
	assert.Equal(t, 2, got.PurchaseCount)
	assert.Equal(t, 1, got.ServiceCount)
	engine.AssertExpectations(t)
}

func TestOpsHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.NewNotFoundError(shared.EntityCustomer, uuid.New()), http.StatusNotFound, shared.CodeNotFound},
		{"conflict", shared.NewConflictError("customer %s still has sales", "x"), http.StatusConflict, shared.CodeConflict},
		{"partial failure", &shared.PartialFailureError{Event: "sale.recorded", FailedStep: "stock", Cause: errors.New("disk")}, http.StatusInternalServerError, shared.CodePartialFailure},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, handler.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(mockEngine)
			engine.On("RecomputeCustomerNetValue", mock.Anything, mock.Anything).Return(nil, tt.err)

			w, body := do(t, newServer(engine, nil, nil), http.MethodPost, "/api/v1/customers/"+uuid.NewString()+"/recompute")

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.RequestID)
		})
	}
}

func TestOpsHandler_InvalidCustomerID(t *testing.T) {
	engine := new(mockEngine)

	w, body := do(t, newServer(engine, nil, nil), http.MethodGet, "/api/v1/customers/not-a-uuid/drift")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handler.CodeBadRequest, body.Error.Code)
	engine.AssertNotCalled(t, "VerifyCustomer", mock.Anything, mock.Anything)
}

func TestOpsHandler_Recompute(t *testing.T) {
	engine := new(mockEngine)
	customer := &partner.Customer{Name: "Asha", NetValue: decimal.NewFromInt(900), PurchaseCount: 1}
	customer.ID = uuid.New()
	customer.Version = 4
	engine.On("RecomputeCustomerNetValue", mock.Anything, customer.ID).Return(customer, nil)

	w, body := do(t, newServer(engine, nil, nil), http.MethodPost, "/api/v1/customers/"+customer.ID.String()+"/recompute")

	assert.Equal(t, http.StatusOK, w.Code)
	var got handler.RecomputeResponse
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, 4, got.Version)
	assert.Equal(t, 1, got.PurchaseCount)
}

func TestOpsHandler_VerifyCustomer(t *testing.T) {
	engine := new(mockEngine)
	id := uuid.New()
	engine.On("VerifyCustomer", mock.Anything, id).Return(consistency.Drift{
		CustomerID: id,
		Stored:     partner.Aggregates{NetValue: decimal.NewFromInt(100), PurchaseCount: 1},
		Derived:    partner.Aggregates{NetValue: decimal.NewFromInt(150), PurchaseCount: 1},
	}, nil)

	w, body := do(t, newServer(engine, nil, nil), http.MethodGet, "/api/v1/customers/"+id.String()+"/drift")

	assert.Equal(t, http.StatusOK, w.Code)
	var got struct {
		HasDrift bool `json:"has_drift"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.True(t, got.HasDrift)
}

func TestOpsHandler_Audit(t *testing.T) {
	engine := new(mockEngine)
	engine.On("AuditAggregates", mock.Anything).Return(nil, nil)

	w, body := do(t, newServer(engine, nil, nil), http.MethodPost, "/api/v1/audit/aggregates")

	assert.Equal(t, http.StatusOK, w.Code)
	var got handler.AuditResponse
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, 0, got.Count)
	assert.NotNil(t, got.Drifted)
}

func TestOpsHandler_Reconcile(t *testing.T) {
	t.Run("runs one pass", func(t *testing.T) {
		rec := new(mockReconciler)
		rec.On("RunOnce", mock.Anything).Return(document.ReconcileResult{Scanned: 3, Issued: 2, Pending: 1}, nil)

		w, body := do(t, newServer(new(mockEngine), rec, nil), http.MethodPost, "/api/v1/documents/reconcile")

		assert.Equal(t, http.StatusOK, w.Code)
		var got document.ReconcileResult
		require.NoError(t, json.Unmarshal(body.Data, &got))
		assert.Equal(t, document.ReconcileResult{Scanned: 3, Issued: 2, Pending: 1}, got)
		rec.AssertExpectations(t)
	})

	t.Run("disabled", func(t *testing.T) {
		w, body := do(t, newServer(new(mockEngine), nil, nil), http.MethodPost, "/api/v1/documents/reconcile")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, handler.CodeUnavailable, body.Error.Code)
	})
}

func TestOpsHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		checks := map[string]handler.HealthCheck{
			"store": func(context.Context) error { return nil },
		}
		w, body := do(t, newServer(new(mockEngine), nil, checks), http.MethodGet, "/health")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, body.Success)
		assert.Contains(t, string(body.Data), `"store":"ok"`)
	})

	t.Run("unhealthy", func(t *testing.T) {
		checks := map[string]handler.HealthCheck{
			"store": func(context.Context) error { return nil },
			"cache": func(context.Context) error { return errors.New("redis down") },
		}
		w, body := do(t, newServer(new(mockEngine), nil, checks), http.MethodGet, "/health")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.False(t, body.Success)
		assert.Contains(t, string(body.Data), `"cache":"error"`)
	})
}

func TestHTTPStatus_UnknownCodeIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, handler.HTTPStatus("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusUnprocessableEntity, handler.HTTPStatus(shared.CodeInvalidTransition))
}
