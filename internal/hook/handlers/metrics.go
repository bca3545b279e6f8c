package handlers

import (
	"context"

	"oddsy/internal/hook"
	"oddsy/internal/metrics"
)

// Outcome reporter implemented by tool results.
type okResult interface {
	Succeeded() bool
}

// MetricsHandler feeds tool and run events into the Prometheus collectors.
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (h *MetricsHandler) Name() string {
	return "metrics"
}

func (h *MetricsHandler) Points() []hook.HookPoint {
	return []hook.HookPoint{hook.AfterToolExecution, hook.OnRunEnd}
}

// Priority is low so observers run after anything that may deny.
func (h *MetricsHandler) Priority() int {
	return -100
}

func (h *MetricsHandler) Handle(_ context.Context, data *hook.HookData) (*hook.Feedback, error) {
	switch data.Point {
	case hook.AfterToolExecution:
		ok := false
		if r, isResult := data.Get(hook.KeyResult).(okResult); isResult {
			ok = r.Succeeded()
		}
		metrics.RecordToolCall(data.ToolName, ok, data.GetDuration(hook.KeyDuration))
	case hook.OnRunEnd:
		metrics.RecordRun(data.GetString(hook.KeyOutcome), data.GetInt(hook.KeySteps))
	}
	return hook.AllowFeedback(), nil
}
