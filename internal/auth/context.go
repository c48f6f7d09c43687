package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
)

// Gin context keys set by the auth middleware.
const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxUser        = "user"
)

// UserFirebaseUID is the verified caller id, or "" on unauthenticated routes.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// CurrentUser returns the user record synced for this request.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}
