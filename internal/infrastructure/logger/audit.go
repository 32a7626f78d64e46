package logger

import (
	"context"

	"github.com/chronoshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ZapAuditLog writes audit entries to a dedicated "audit" logger
type ZapAuditLog struct {
	logger *zap.Logger
}

// NewZapAuditLog creates an audit log on top of logger
func NewZapAuditLog(logger *zap.Logger) *ZapAuditLog {
	return &ZapAuditLog{logger: logger.Named("audit")}
}

// Log implements shared.AuditLog
func (a *ZapAuditLog) Log(_ context.Context, actorUsername, actorRole, action, category string, details map[string]any) error {
	a.logger.Info(action,
		zap.String("actor", actorUsername),
		zap.String("role", actorRole),
		zap.String("category", category),
		zap.Any("details", details),
	)
	return nil
}

var _ shared.AuditLog = (*ZapAuditLog)(nil)
