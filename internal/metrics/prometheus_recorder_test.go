package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveStage("SPEC", "ok", 2*time.Second)
	rec.ObserveStage("SPEC", "error", time.Second)
	rec.IncGenerationRetry("SPEC")
	rec.IncLedgerFailure()
	rec.IncBuildSubmission("ok")
	rec.IncDeploymentTransition("WORKING", "SUCCESS")

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.stageResults.WithLabelValues("SPEC", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.stageResults.WithLabelValues("SPEC", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.generationRetries.WithLabelValues("SPEC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.ledgerFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.deployTransitions.WithLabelValues("WORKING", "SUCCESS")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.stageDuration))
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildSubmission("error")

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `dgbp_build_submissions_total{result="error"} 1`)
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoopRecorder{}, OrNoop(nil))
	rec := NewPrometheusRecorder(prom.NewRegistry())
	assert.Same(t, rec, OrNoop(rec))
}
