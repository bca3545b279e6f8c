package cli

import (
	"context"
	"fmt"
	"io"

	"oddsy/internal/agent"
	"oddsy/internal/hook"
)

// ProgressHandler prints the step label of each tool as it starts, the way
// the chat surface shows what the analyst is doing.
type ProgressHandler struct {
	writer    io.Writer
	colorMode bool
	frames    []string
	current   int
}

func NewProgressHandler(w io.Writer, color bool) *ProgressHandler {
	return &ProgressHandler{
		writer:    w,
		colorMode: color,
		frames:    []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

func (h *ProgressHandler) Name() string {
	return "progress"
}

func (h *ProgressHandler) Points() []hook.HookPoint {
	return []hook.HookPoint{hook.BeforeToolExecution}
}

// Priority runs after confirmation prompts.
func (h *ProgressHandler) Priority() int {
	return 0
}

func (h *ProgressHandler) Handle(_ context.Context, data *hook.HookData) (*hook.Feedback, error) {
	label, ok := agent.StepLabel(data.ToolName)
	if !ok {
		return hook.AllowFeedback(), nil
	}

	frame := h.frames[h.current%len(h.frames)]
	h.current++
	if h.colorMode {
		fmt.Fprintf(h.writer, "%s%s %s%s\n", ColorCyan, frame, label, ColorReset)
	} else {
		fmt.Fprintf(h.writer, "%s %s\n", frame, label)
	}
	return hook.AllowFeedback(), nil
}
