// package metrics exposes Prometheus collectors for admission, AI calls and error logging.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codeberg.org/fittrack/server/internal/admission"
	"codeberg.org/fittrack/server/internal/errorlog"
)

const namespace = "fittrack"

// AI call outcomes used as the outcome label
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// holds every collector on a private registry
type Metrics struct {
	registry *prometheus.Registry

	admissions    *prometheus.CounterVec
	denials       *prometheus.CounterVec
	aiDuration    *prometheus.HistogramVec
	aiTokens      *prometheus.CounterVec
	errorsLogged  *prometheus.CounterVec
	settleRetries prometheus.Counter
	settleDrift   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coach_admissions_total",
			Help:      "Coaching requests admitted, by kind.",
		}, []string{"kind"}),
		denials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coach_denials_total",
			Help:      "Coaching requests denied, by reason.",
		}, []string{"reason"}),
		aiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "AI provider call latency, by kind and outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"kind", "outcome"}),
		aiTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_tokens_total",
			Help:      "Tokens exchanged with the AI provider, by direction.",
		}, []string{"direction"}),
		errorsLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_logged_total",
			Help:      "Records written to the error log, by type and severity.",
		}, []string{"type", "severity"}),
		settleRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credit_settle_retries_total",
			Help:      "Retried credit debits after a successful AI call.",
		}),
		settleDrift: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credit_settle_drift_total",
			Help:      "Successful AI calls that could not be debited.",
		}),
	}
}

func (m *Metrics) Admitted(kind admission.Kind) {
	m.admissions.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Denied(reason admission.Reason) {
	m.denials.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) SettleDrift() {
	m.settleDrift.Inc()
}

func (m *Metrics) SettleRetried() {
	m.settleRetries.Inc()
}

func (m *Metrics) ErrorLogged(t errorlog.ErrorType, s errorlog.Severity) {
	m.errorsLogged.WithLabelValues(string(t), string(s)).Inc()
}

// records one AI provider call
func (m *Metrics) AICall(kind admission.Kind, outcome string, elapsed time.Duration, inputTokens, outputTokens int) {
	m.aiDuration.WithLabelValues(string(kind), outcome).Observe(elapsed.Seconds())

	if inputTokens > 0 {
		m.aiTokens.WithLabelValues("input").Add(float64(inputTokens))
	}

	if outputTokens > 0 {
		m.aiTokens.WithLabelValues("output").Add(float64(outputTokens))
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
