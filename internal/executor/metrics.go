package executor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK            = "ok"
	OutcomeCompileError  = "compile_error"
	OutcomeUnreachable   = "unreachable"
	OutcomeStatus        = "status"
	OutcomeEmptyResponse = "empty_response"
)

// Metrics holds Prometheus metrics for SPARQL executions.
type Metrics struct {
	queriesTotal  *prometheus.CounterVec
	queryDuration prometheus.Histogram
}

// NewMetrics creates executor metrics and registers them with reg.
// A nil registerer leaves the metrics unregistered, which tests use to
// read counters directly.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "semanteco_sparql_queries_total",
				Help: "Total number of SPARQL queries sent, by outcome",
			},
			[]string{"outcome"},
		),
		queryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "semanteco_sparql_query_duration_seconds",
				Help:    "Round-trip time of SPARQL queries",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.queriesTotal, m.queryDuration)
	}
	return m
}

// observe records one execution. Safe to call on a nil *Metrics.
func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCompileError {
		m.queryDuration.Observe(elapsed.Seconds())
	}
}
