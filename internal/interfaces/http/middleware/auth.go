package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActorKey holds the authenticated shared.Actor in the gin context
const ActorKey = "actor"

// TokenVerifier turns a bearer token into the actor it was issued to
type TokenVerifier interface {
	Verify(token string) (shared.Actor, error)
}

// Authenticate rejects requests without a valid bearer token. The token's
// actor becomes the request actor, replacing any X-Actor header.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			deny(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		actor, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			GetLogger(c).Debug("Token rejected", zap.Error(err))
			deny(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}

		ctx, enriched := logger.WithActor(c.Request.Context(), GetLogger(c), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Set(LoggerKey, enriched)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// RequireRole lets through only authenticated actors holding one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(ActorKey)
		actor, isActor := v.(shared.Actor)
		if !ok || !isActor {
			deny(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		if !slices.Contains(roles, actor.Role) {
			deny(c, http.StatusForbidden, "FORBIDDEN", "role "+actor.Role+" may not perform this operation")
			return
		}
		c.Next()
	}
}

func deny(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": c.GetString(RequestIDKey),
		},
	})
}
