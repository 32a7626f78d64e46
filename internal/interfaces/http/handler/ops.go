package handler

import (
	"context"
	"time"

	"github.com/chronoshop/backend/internal/application/consistency"
	"github.com/chronoshop/backend/internal/application/document"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AggregateOps is the part of the engine exposed to operators
type AggregateOps interface {
	GetCustomerAggregates(ctx context.Context, customerID uuid.UUID) (*partner.Aggregates, error)
	VerifyCustomer(ctx context.Context, customerID uuid.UUID) (consistency.Drift, error)
	RecomputeCustomerNetValue(ctx context.Context, customerID uuid.UUID) (*partner.Customer, error)
	AuditAggregates(ctx context.Context) ([]consistency.Drift, error)
}

// DocumentReconciler runs one pass over pending documents
type DocumentReconciler interface {
	RunOnce(ctx context.Context) (document.ReconcileResult, error)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// OpsHandler serves health, aggregate inspection and repair endpoints
type OpsHandler struct {
	engine     AggregateOps
	reconciler DocumentReconciler
	checks     map[string]HealthCheck
	now        func() time.Time
}

// NewOpsHandler creates the handler. reconciler may be nil when
// reconciliation is disabled.
func NewOpsHandler(engine AggregateOps, reconciler DocumentReconciler, checks map[string]HealthCheck) *OpsHandler {
	return &OpsHandler{
		engine:     engine,
		reconciler: reconciler,
		checks:     checks,
		now:        time.Now,
	}
}

// AggregatesResponse is the stored aggregate state of a customer
type AggregatesResponse struct {
	CustomerID    uuid.UUID       `json:"customer_id"`
	NetValue      decimal.Decimal `json:"net_value"`
	PurchaseCount int             `json:"purchase_count"`
	ServiceCount  int             `json:"service_count"`
}

// RecomputeResponse is returned after a customer is recomputed
type RecomputeResponse struct {
	AggregatesResponse
	Version int `json:"version"`
}

// AuditResponse lists customers whose stored aggregates drifted
type AuditResponse struct {
	Drifted []consistency.Drift `json:"drifted"`
	Count   int                 `json:"count"`
}

// Health godoc
// GET /health
func (h *OpsHandler) Health(c *gin.Context) {
	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			middleware.GetLogger(c).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			status[name] = "error"
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	body := gin.H{"time": h.now().UTC().Format(time.RFC3339), "checks": status}
	if !healthy {
		body["status"] = "unhealthy"
		c.JSON(HTTPStatus(CodeUnavailable), Response{Data: body})
		return
	}
	body["status"] = "healthy"
	success(c, body)
}

// GetAggregates godoc
// GET /api/v1/customers/:id/aggregates
func (h *OpsHandler) GetAggregates(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	agg, err := h.engine.GetCustomerAggregates(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, AggregatesResponse{
		CustomerID:    id,
		NetValue:      agg.NetValue,
		PurchaseCount: agg.PurchaseCount,
		ServiceCount:  agg.ServiceCount,
	})
}

// VerifyCustomer godoc
// GET /api/v1/customers/:id/drift
func (h *OpsHandler) VerifyCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	drift, err := h.engine.VerifyCustomer(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, gin.H{"drift": drift, "has_drift": drift.HasDrift()})
}

// Recompute godoc
// POST /api/v1/customers/:id/recompute
func (h *OpsHandler) Recompute(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	customer, err := h.engine.RecomputeCustomerNetValue(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	middleware.GetLogger(c).Info("Customer aggregates recomputed", zap.String("customer_id", id.String()))
	success(c, RecomputeResponse{
		AggregatesResponse: AggregatesResponse{
			CustomerID:    customer.ID,
			NetValue:      customer.NetValue,
			PurchaseCount: customer.PurchaseCount,
			ServiceCount:  customer.ServiceCount,
		},
		Version: customer.Version,
	})
}

// Audit godoc
// POST /api/v1/audit/aggregates
func (h *OpsHandler) Audit(c *gin.Context) {
	drifted, err := h.engine.AuditAggregates(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	if drifted == nil {
		drifted = []consistency.Drift{}
	}
	success(c, AuditResponse{Drifted: drifted, Count: len(drifted)})
}

// Reconcile godoc
// POST /api/v1/documents/reconcile
func (h *OpsHandler) Reconcile(c *gin.Context) {
	if h.reconciler == nil {
		fail(c, CodeUnavailable, "document reconciliation is disabled")
		return
	}
	result, err := h.reconciler.RunOnce(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, result)
}

func customerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, CodeBadRequest, "invalid customer id")
		return uuid.Nil, false
	}
	return id, true
}
