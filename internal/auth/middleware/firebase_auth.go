package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/logging"
)

// FirebaseAuthMiddleware validates Firebase ID tokens and syncs the user record
func FirebaseAuthMiddleware(verifier auth.TokenVerifier, users *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			return
		}

		ctx := c.Request.Context()
		id, err := verifier.Verify(ctx, token)
		if err != nil {
			slog.DebugContext(ctx, "token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}

		user, err := users.SyncUser(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrUserDisabled) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "account disabled"})
				return
			}
			slog.ErrorContext(ctx, "user sync failed", "caller_id", id.CallerID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to load user"})
			return
		}

		c.Set(auth.CtxFirebaseUID, id.CallerID)
		c.Set(auth.CtxEmail, id.Email)
		c.Set(auth.CtxUser, user)
		c.Request = c.Request.WithContext(logging.WithFields(ctx, logging.Fields{CallerID: id.CallerID}))

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
