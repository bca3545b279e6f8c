package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"oddsy/internal/hook"
)

// ConfirmAll in the tool list asks before every tool.
const ConfirmAll = "*"

const maxParamsShown = 200

// ToolConfirmHandler asks on the terminal before listed tools spend upstream
// quota. Answering "a" allows that tool for the rest of the session.
type ToolConfirmHandler struct {
	scanner *bufio.Scanner
	writer  io.Writer
	tools   map[string]bool

	mu     sync.Mutex
	always map[string]bool
}

func NewToolConfirmHandler(tools ...string) *ToolConfirmHandler {
	return NewToolConfirmHandlerWithIO(os.Stdin, os.Stderr, tools...)
}

// NewToolConfirmHandlerWithIO creates a handler with custom IO (for testing)
func NewToolConfirmHandlerWithIO(reader io.Reader, writer io.Writer, tools ...string) *ToolConfirmHandler {
	set := make(map[string]bool, len(tools))
	for _, t := range tools {
		set[t] = true
	}
	return &ToolConfirmHandler{
		scanner: bufio.NewScanner(reader),
		writer:  writer,
		tools:   set,
		always:  make(map[string]bool),
	}
}

func (h *ToolConfirmHandler) Name() string {
	return "tool_confirm"
}

func (h *ToolConfirmHandler) Points() []hook.HookPoint {
	return []hook.HookPoint{hook.BeforeToolExecution}
}

// Priority puts the prompt ahead of progress output.
func (h *ToolConfirmHandler) Priority() int {
	return 100
}

func (h *ToolConfirmHandler) Handle(_ context.Context, data *hook.HookData) (*hook.Feedback, error) {
	if !h.tools[ConfirmAll] && !h.tools[data.ToolName] {
		return hook.AllowFeedback(), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.always[data.ToolName] {
		return hook.AllowFeedback(), nil
	}

	fmt.Fprintf(h.writer, "\n\033[33m⚠️  %s wants to call its upstream API\033[0m\n", data.ToolName)
	if params := strings.TrimSpace(data.GetString(hook.KeyParams)); params != "" && params != "{}" {
		if len(params) > maxParamsShown {
			params = params[:maxParamsShown] + "..."
		}
		fmt.Fprintf(h.writer, "    Arguments: %s\n", params)
	}
	fmt.Fprintf(h.writer, "Allow? [y]es / [a]lways / [N]o: ")

	if !h.scanner.Scan() {
		return hook.DenyFeedback("No input received"), nil
	}

	switch strings.TrimSpace(strings.ToLower(h.scanner.Text())) {
	case "y", "yes":
		fmt.Fprintf(h.writer, "\033[32m✓ Allowed\033[0m\n\n")
		return hook.AllowFeedback(), nil
	case "a", "always":
		h.always[data.ToolName] = true
		fmt.Fprintf(h.writer, "\033[32m✓ Allowed for this session\033[0m\n\n")
		return hook.AllowFeedback(), nil
	default:
		fmt.Fprintf(h.writer, "\033[31m✗ Denied\033[0m\n\n")
		return hook.DenyFeedback("User denied tool execution"), nil
	}
}
