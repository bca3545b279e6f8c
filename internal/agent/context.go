package agent

import (
	"fmt"
	"time"

	"oddsy/internal/logger"
)

// ExecutionContext tracks the progress of one run and provides logging
// utilities
type ExecutionContext struct {
	Logger        *logger.Logger
	RunID         string
	StartTime     time.Time
	CurrentStep   int
	MaxSteps      int
	ToolCallCount int

	steps []string
}

// NewExecutionContext creates a new execution context with the given logger
func NewExecutionContext(log *logger.Logger, runID string, maxSteps int) *ExecutionContext {
	return &ExecutionContext{
		Logger:    log,
		RunID:     runID,
		StartTime: time.Now(),
		MaxSteps:  maxSteps,
	}
}

// LogToolCall logs a tool call with its parameters
func (ctx *ExecutionContext) LogToolCall(toolName, params string) {
	ctx.ToolCallCount++
	ctx.Logger.ToolCall(toolName, params)
}

// LogToolResult logs a tool execution result
func (ctx *ExecutionContext) LogToolResult(toolName string, success bool, output string, duration time.Duration) {
	ctx.Logger.ToolResult(toolName, success, output, duration)
}

// LogResponse logs the model's plain-text answer
func (ctx *ExecutionContext) LogResponse(content string) {
	ctx.Logger.AgentResponse(content)
}

// LogProgress logs the current progress (step X of Y)
func (ctx *ExecutionContext) LogProgress() {
	ctx.Logger.Progress(ctx.CurrentStep, ctx.MaxSteps,
		fmt.Sprintf("Step %d/%d", ctx.CurrentStep, ctx.MaxSteps))
}

// RecordStep appends the tool's progress label, if it has one.
func (ctx *ExecutionContext) RecordStep(toolName string) {
	if label, ok := StepLabel(toolName); ok {
		ctx.steps = append(ctx.steps, label)
		ctx.Logger.Debug("step: %s", label)
	}
}

// Steps returns the labels recorded so far, never nil.
func (ctx *ExecutionContext) Steps() []string {
	out := make([]string, len(ctx.steps))
	copy(out, ctx.steps)
	return out
}

// End logs the run summary.
func (ctx *ExecutionContext) End(outcome string) {
	ctx.Logger.SessionEnd(time.Since(ctx.StartTime), ctx.ToolCallCount, outcome)
}
