package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	stageCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopflow_stage_calls_total",
			Help: "Total number of agent stage invocations",
		},
		[]string{"stage", "status"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopflow_stage_duration_seconds",
			Help:    "Agent stage invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopflow_turns_total",
			Help: "Total number of conversation turns",
		},
		[]string{"status"},
	)

	branchDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopflow_branch_decisions_total",
			Help: "Total number of branch decisions by outcome",
		},
		[]string{"decision"},
	)

	metricsOnce sync.Once
)

// InitMetrics registers all metrics with the default registry.
func InitMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			stageCallsTotal,
			stageDuration,
			turnsTotal,
			branchDecisionsTotal,
		)
	})
}

// ObserveStage records one stage invocation.
func ObserveStage(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	stageCallsTotal.WithLabelValues(stage, status).Inc()
	stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// CountTurn records one completed or failed conversation turn.
func CountTurn(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	turnsTotal.WithLabelValues(status).Inc()
}

// CountDecision records one branch decision outcome.
func CountDecision(decision string) {
	branchDecisionsTotal.WithLabelValues(decision).Inc()
}

// MetricsHandler returns the Prometheus metrics HTTP handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
