package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/artifacts"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	pipelinedomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage/redisdb"
)

type discardBucket struct{ puts int }

func (d *discardBucket) Put(context.Context, string, string, []byte) error {
	d.puts++
	return nil
}

func setup(t *testing.T, maxBytes int64) (*gin.Engine, *discardBucket) {
	gin.SetMode(gin.TestMode)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	store := redisdb.New(client)
	now := time.Now().UTC()
	require.NoError(t, store.CreateProject(context.Background(),
		&pipelinedomain.Project{ID: "p1", UserID: "u1", WorkspaceID: "w1", Idea: "coffee", CurrentVersionID: "v1", CreatedAt: now},
		pipelinedomain.NewVersion("v1", "p1", "u1", now)))

	bucket := &discardBucket{}
	guard := ownership.NewGuard().Register(ownership.KindVersion, ownership.LookupOf(store.GetVersion))
	svc := artifacts.NewService(guard, store, bucket, 1)

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(auth.CtxFirebaseUID, "u1")
		c.Next()
	})
	New(svc, maxBytes).Register(api)
	return r, bucket
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/versions/v1/files", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPersistEndpoint(t *testing.T) {
	r, bucket := setup(t, 0)
	content := base64.StdEncoding.EncodeToString([]byte("<html></html>"))

	w := post(r, `{"dist":{"files":[{"path":"index.html","contentBase64":"`+content+`"}]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true,"files":1}`, w.Body.String())
	assert.Equal(t, 1, bucket.puts)

	w = post(r, `{"source":{"files":[{"path":"a.js","contentBase64":"!!"}]}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPersistEndpointBodyLimit(t *testing.T) {
	r, bucket := setup(t, 64)
	w := post(r, `{"source":{"files":[{"path":"a.js","contentBase64":"`+strings.Repeat("A", 200)+`"}]}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, bucket.puts)
}
