package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tool metrics
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oddsy_tool_calls_total",
		Help: "Total number of tool executions",
	}, []string{"tool", "status"})

	toolLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oddsy_tool_latency_seconds",
		Help:    "Tool execution latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0, 45.0},
	}, []string{"tool"})

	// Upstream metrics
	upstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oddsy_upstream_attempts_total",
		Help: "Total number of upstream HTTP attempts",
	}, []string{"host", "outcome"})

	// Run metrics
	runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oddsy_runs_total",
		Help: "Total number of orchestration runs by outcome",
	}, []string{"outcome"})

	runSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oddsy_run_steps",
		Help:    "Model iterations used per run",
		Buckets: []float64{1, 2, 3, 4, 5, 8, 10},
	})
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RecordToolCall records one tool execution.
func RecordToolCall(tool string, ok bool, d time.Duration) {
	status := StatusOK
	if !ok {
		status = StatusError
	}
	toolCalls.WithLabelValues(tool, status).Inc()
	toolLatency.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordUpstreamAttempt records one HTTP attempt against an upstream host.
func RecordUpstreamAttempt(host, outcome string) {
	upstreamAttempts.WithLabelValues(host, outcome).Inc()
}

// RecordRun records a finished orchestration run.
func RecordRun(outcome string, steps int) {
	runs.WithLabelValues(outcome).Inc()
	runSteps.Observe(float64(steps))
}
