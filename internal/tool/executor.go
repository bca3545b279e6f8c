package tool

import (
	"context"
	"time"

	"oddsy/internal/hook"
	"oddsy/internal/llm"
)

// Executor dispatches one tool call at a time through the registry.
type Executor struct {
	registry    *Registry
	hookManager *hook.Manager
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// SetHookManager sets the hook manager for tool execution hooks
func (e *Executor) SetHookManager(manager *hook.Manager) {
	e.hookManager = manager
}

// Execute runs a single tool call. Lookup, validation and execution failures
// are all reported in the returned Result; Execute itself never fails.
func (e *Executor) Execute(ctx context.Context, tc *llm.ToolCall) *CallResult {
	cr := &CallResult{
		ToolName:  tc.Function.Name,
		CallID:    tc.ID,
		Params:    []byte(tc.Function.Arguments),
		StartTime: time.Now(),
	}

	cr.Result = e.run(ctx, tc)
	cr.EndTime = time.Now()

	if e.hookManager != nil {
		data := hook.NewHookData(hook.AfterToolExecution, cr.ToolName).
			Set(hook.KeyParams, tc.Function.Arguments).
			Set(hook.KeyResult, cr.Result).
			Set(hook.KeyDuration, cr.Duration())

		// After hooks don't block, just trigger
		_, _ = e.hookManager.Trigger(ctx, data)
	}

	return cr
}

func (e *Executor) run(ctx context.Context, tc *llm.ToolCall) Result {
	spec, err := e.registry.Get(tc.Function.Name)
	if err != nil {
		return FromError(err)
	}

	if e.hookManager != nil {
		data := hook.NewHookData(hook.BeforeToolExecution, spec.Name).
			Set(hook.KeyParams, tc.Function.Arguments)

		feedback, err := e.hookManager.Trigger(ctx, data)
		if err != nil {
			return Failf("hook error: %v", err)
		}
		if !feedback.Allow {
			return Failf("tool execution was denied: %s", feedback.Message)
		}
	}

	return spec.Call(ctx, tc.Function.Arguments)
}
