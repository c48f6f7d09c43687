package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dgbp"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration     *prom.HistogramVec
	stageResults      *prom.CounterVec
	generationRetries *prom.CounterVec
	generationExhaust *prom.CounterVec
	ledgerFailures    prom.Counter
	buildSubmissions  *prom.CounterVec
	deployTransitions *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stage executions",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Pipeline stage executions by result",
		}, []string{"stage", "result"}),
		generationRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generation_retries_total",
			Help:      "Generation attempts after the first one",
		}, []string{"stage"}),
		generationExhaust: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generation_exhausted_total",
			Help:      "Stages where every generation attempt failed",
		}, []string{"stage"}),
		ledgerFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_failures_total",
			Help:      "Usage records that could not be written",
		}),
		buildSubmissions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_submissions_total",
			Help:      "Build submissions by result",
		}, []string{"result"}),
		deployTransitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "deployment_transitions_total",
			Help:      "Deployment status transitions",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(
		pr.stageDuration, pr.stageResults, pr.generationRetries, pr.generationExhaust,
		pr.ledgerFailures, pr.buildSubmissions, pr.deployTransitions,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStage(stage, result string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	p.stageResults.WithLabelValues(stage, result).Inc()
}

func (p *PrometheusRecorder) IncGenerationRetry(stage string) {
	p.generationRetries.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) IncGenerationExhausted(stage string) {
	p.generationExhaust.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) IncLedgerFailure() { p.ledgerFailures.Inc() }

func (p *PrometheusRecorder) IncBuildSubmission(result string) {
	p.buildSubmissions.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncDeploymentTransition(from, to string) {
	p.deployTransitions.WithLabelValues(from, to).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
