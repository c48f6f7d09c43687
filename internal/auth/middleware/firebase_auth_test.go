package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage/redisdb"
)

type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if token != "valid" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{CallerID: "u1", Email: "u1@example.com"}, nil
}

func setup(t *testing.T) (*gin.Engine, *redisdb.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	store := redisdb.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })

	r := gin.New()
	r.Use(FirebaseAuthMiddleware(staticVerifier{}, service.NewAuthService(store, nil)))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, auth.UserFirebaseUID(c))
	})
	return r, store
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	r, _ := setup(t)

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Basic valid").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer nope").Code)

	w := call(r, "Bearer valid")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestFirebaseAuthMiddlewareDisabledUser(t *testing.T) {
	r, store := setup(t)
	require.Equal(t, http.StatusOK, call(r, "Bearer valid").Code)

	require.NoError(t, store.SetUserStatus(context.Background(), "u1", domain.StatusDisabled))
	assert.Equal(t, http.StatusForbidden, call(r, "Bearer valid").Code)

	require.NoError(t, store.SetUserStatus(context.Background(), "u1", domain.StatusActive))
	assert.Equal(t, http.StatusOK, call(r, "Bearer valid").Code)
}
