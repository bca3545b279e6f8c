package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oddsy/internal/hook"
	"oddsy/internal/llm"
	"oddsy/internal/logger"
	"oddsy/internal/tool"
	"oddsy/internal/tools/decision"

	"github.com/google/uuid"
)

const truncatedSuffix = "\n[Response truncated due to length limit]"

// Orchestrator alternates model inference and tool execution until the
// model calls the terminal tool, answers in plain text, or the step budget
// runs out.
type Orchestrator struct {
	client   llm.Client
	registry *tool.Registry
	executor *tool.Executor
	hooks    *hook.Manager
	log      *logger.Logger
	cfg      Config
}

var _ Runner = (*Orchestrator)(nil)

type Option func(*Orchestrator)

// WithConfig replaces the defaults. Zero MaxSteps keeps the default budget.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) {
		if cfg.MaxSteps <= 0 {
			cfg.MaxSteps = DefaultMaxSteps
		}
		o.cfg = cfg
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithHookManager wires lifecycle and tool hooks.
func WithHookManager(m *hook.Manager) Option {
	return func(o *Orchestrator) { o.hooks = m }
}

func New(client llm.Client, registry *tool.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		registry: registry,
		log:      logger.Discard(),
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.executor = tool.NewExecutor(registry)
	if o.hooks != nil {
		o.executor.SetHookManager(o.hooks)
	}
	return o
}

// Run executes one conversation to its Outcome.
func (o *Orchestrator) Run(ctx context.Context, history []llm.Message) (Outcome, error) {
	outcome, _, err := o.RunConversation(ctx, history)
	return outcome, err
}

// RunConversation is Run that also returns the conversation as it stood when
// the run ended.
func (o *Orchestrator) RunConversation(ctx context.Context, history []llm.Message) (outcome Outcome, conv []llm.Message, err error) {
	conv, err = o.prepare(history)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.NewString()
	log := o.log.With("run", runID[:8])
	ec := NewExecutionContext(log, runID, o.cfg.MaxSteps)

	log.SessionStart(lastUserText(conv))
	o.trigger(ctx, hook.NewHookData(hook.OnRunStart, "").Set(hook.KeyRunID, runID))

	defer func() {
		kind := KindError
		if err == nil {
			kind = outcome.Kind()
		} else {
			log.Error("run failed: %v", err)
		}
		ec.End(kind)
		o.trigger(context.WithoutCancel(ctx), hook.NewHookData(hook.OnRunEnd, "").
			Set(hook.KeyRunID, runID).
			Set(hook.KeyOutcome, kind).
			Set(hook.KeySteps, ec.CurrentStep))
	}()

	tools := o.registry.GetToolDefinitions()

	for step := 1; step <= o.cfg.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, conv, err
		}
		ec.CurrentStep = step
		ec.LogProgress()

		resp, err := o.client.Chat(ctx, &llm.ChatRequest{
			Messages:    conv,
			Tools:       tools,
			Temperature: o.cfg.Temperature,
			MaxTokens:   o.cfg.MaxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, conv, ctx.Err()
			}
			return nil, conv, fmt.Errorf("%w: %w", ErrModel, err)
		}

		msg := resp.Message
		msg.Role = llm.RoleAssistant
		if len(msg.ToolCalls) == 0 {
			text := msg.Content
			if resp.StopReason == llm.StopReasonLength {
				text += truncatedSuffix
			}
			ec.LogResponse(text)
			return PlainAnswer{Text: text, Steps: ec.Steps()}, conv, nil
		}

		if len(msg.ToolCalls) > 1 {
			log.Warn("model requested %d tool calls; running only the first", len(msg.ToolCalls))
		}
		tc := normalizeCall(msg.ToolCalls[0], step)
		name, args := tc.Function.Name, tc.Function.Arguments

		if name == decision.ToolName {
			ec.LogToolCall(name, args)
			rec, err := decision.Parse(args)
			if err != nil {
				return nil, conv, fmt.Errorf("%w: %w", ErrContractViolation, err)
			}
			for _, problem := range decision.Crosscheck(rec) {
				log.Warn("pick cross-check: %s", problem)
			}
			return FinalDecision{Payload: rec}, conv, nil
		}

		msg.ToolCalls = []*llm.ToolCall{tc}
		msg.Timestamp = time.Now()
		conv = append(conv, msg)

		ec.RecordStep(name)
		ec.LogToolCall(name, args)
		cr := o.executor.Execute(ctx, tc)
		content := cr.Result.String()
		ec.LogToolResult(name, cr.Result.Succeeded(), content, cr.Duration())

		conv = append(conv, llm.Message{
			Role:       llm.RoleTool,
			Content:    content,
			ToolCallID: tc.ID,
			Name:       name,
			Timestamp:  cr.EndTime,
		})
	}

	log.Warn("step budget of %d exhausted", o.cfg.MaxSteps)
	return BudgetExhausted{Message: BudgetExhaustedMessage}, conv, nil
}

// prepare validates the caller's history and prepends the system prompt.
func (o *Orchestrator) prepare(history []llm.Message) ([]llm.Message, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: conversation is empty", ErrInvalidInput)
	}
	for i, m := range history {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: message %d has invalid role %q", ErrInvalidInput, i, m.Role)
		}
	}

	conv := make([]llm.Message, 0, len(history)+1+2*o.cfg.MaxSteps)
	if history[0].Role != llm.RoleSystem && o.cfg.SystemPrompt != "" {
		conv = append(conv, llm.Message{Role: llm.RoleSystem, Content: o.cfg.SystemPrompt})
	}
	return append(conv, history...), nil
}

func (o *Orchestrator) trigger(ctx context.Context, data *hook.HookData) {
	if o.hooks == nil {
		return
	}
	if _, err := o.hooks.Trigger(ctx, data); err != nil {
		o.log.Warn("%s hook failed: %v", data.Point, err)
	}
}

// normalizeCall guarantees a function and an id on the call.
func normalizeCall(tc *llm.ToolCall, step int) *llm.ToolCall {
	out := &llm.ToolCall{Type: "function", Function: &llm.FunctionCall{}}
	if tc != nil {
		out.ID = tc.ID
		if tc.Function != nil {
			*out.Function = *tc.Function
		}
	}
	if out.ID == "" {
		out.ID = llm.NewToolCallID(out.Function.Name, step)
	}
	return out
}

func lastUserText(conv []llm.Message) string {
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == llm.RoleUser {
			return strings.TrimSpace(conv[i].Content)
		}
	}
	return ""
}
