package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"oddsy/internal/hook"
	"oddsy/internal/llm"
	"oddsy/internal/tool"
	"oddsy/internal/tools/decision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient replays canned responses and records every request.
type scriptedClient struct {
	responses []*llm.ChatResponse
	err       error
	requests  []*llm.ChatRequest
}

func (c *scriptedClient) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	snapshot := *req
	snapshot.Messages = append([]llm.Message(nil), req.Messages...)
	c.requests = append(c.requests, &snapshot)

	if c.err != nil {
		return nil, c.err
	}
	if len(c.requests) > len(c.responses) {
		return nil, errors.New("script exhausted")
	}
	return c.responses[len(c.requests)-1], nil
}

func (c *scriptedClient) Provider() string { return "scripted" }
func (c *scriptedClient) Model() string    { return "test" }

func toolCall(id, name, args string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Message: llm.Message{
			Role:      llm.RoleAssistant,
			ToolCalls: []*llm.ToolCall{{ID: id, Type: "function", Function: &llm.FunctionCall{Name: name, Arguments: args}}},
		},
		StopReason: llm.StopReasonToolCalls,
	}
}

func text(s string, reason llm.StopReason) *llm.ChatResponse {
	return &llm.ChatResponse{Message: llm.Message{Role: llm.RoleAssistant, Content: s}, StopReason: reason}
}

const game = `{"id":"g1","sport_key":"basketball_nba","sport_title":"NBA","commence_time":"2025-01-31T00:30:00Z","home_team":"Boston Celtics","away_team":"Los Angeles Lakers","bookmakers":[{"key":"pinnacle","title":"Pinnacle","markets":[{"key":"h2h","outcomes":[{"name":"Boston Celtics","price":-240},{"name":"Los Angeles Lakers","price":205}]}]}]}`

const finalArgs = `{"game":` + game + `,"pick":{"team":"Los Angeles Lakers","price":205,"bookmaker":"pinnacle","market":"h2h"},"narrative":"Boston is on a back to back."}`

type testRegistry struct {
	*tool.Registry
	calls map[string]*atomic.Int32
}

func newRegistry(t *testing.T) testRegistry {
	t.Helper()
	r := testRegistry{Registry: tool.NewRegistry(), calls: map[string]*atomic.Int32{}}
	for _, name := range []string{"listOdds", "tavilySearch", "getStandings"} {
		n := &atomic.Int32{}
		r.calls[name] = n
		r.MustRegister(&tool.ToolSpec{
			Name:        name,
			Description: name,
			Execute: func(context.Context, map[string]any) tool.Result {
				n.Add(1)
				return tool.Success(map[string]string{"tool": name})
			},
		})
	}
	r.MustRegister(decision.Tool())
	return r
}

func user(s string) []llm.Message {
	return []llm.Message{{Role: llm.RoleUser, Content: s}}
}

func TestRun_ToolThenFinalDecision(t *testing.T) {
	reg := newRegistry(t)
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCall("call_a", "listOdds", `{"sport":"nba"}`),
		toolCall("call_b", decision.ToolName, finalArgs),
	}}

	out, conv, err := New(client, reg.Registry).RunConversation(context.Background(), user("best NBA bet tonight?"))
	require.NoError(t, err)

	final, ok := out.(FinalDecision)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, game, string(final.Payload.Game))
	assert.Equal(t, "Los Angeles Lakers", final.Payload.Pick.Team)
	assert.Equal(t, 205.0, final.Payload.Pick.Price)
	assert.Equal(t, finalArgs, string(final.Payload.Raw))

	// system + user + assistant(tool call) + tool result
	require.Len(t, conv, 4)
	assert.Equal(t, llm.RoleSystem, conv[0].Role)
	assert.Equal(t, DefaultSystemPrompt, conv[0].Content)
	assert.Equal(t, llm.RoleAssistant, conv[2].Role)
	require.Len(t, conv[2].ToolCalls, 1)
	assert.Equal(t, llm.RoleTool, conv[3].Role)
	assert.Equal(t, "call_a", conv[3].ToolCallID)
	assert.Equal(t, "listOdds", conv[3].Name)
	assert.JSONEq(t, `{"ok":true,"data":{"tool":"listOdds"}}`, conv[3].Content)

	assert.Equal(t, int32(1), reg.calls["listOdds"].Load())
	require.Len(t, client.requests, 2)
	assert.Len(t, client.requests[0].Tools, 4)
	assert.Len(t, client.requests[1].Messages, 4)
}

func TestRun_BudgetExhausted(t *testing.T) {
	reg := newRegistry(t)
	var script []*llm.ChatResponse
	for i := 0; i < 10; i++ {
		script = append(script, toolCall("", "tavilySearch", `{"query":"x"}`))
	}
	client := &scriptedClient{responses: script}

	o := New(client, reg.Registry, WithConfig(Config{MaxSteps: 3}))
	out, err := o.Run(context.Background(), user("hi"))
	require.NoError(t, err)

	assert.Equal(t, BudgetExhausted{Message: BudgetExhaustedMessage}, out)
	assert.Len(t, client.requests, 3)
	// The last step's tool still runs before the budget check ends the loop.
	assert.Equal(t, int32(3), reg.calls["tavilySearch"].Load())
}

func TestRun_DefaultBudgetIsFive(t *testing.T) {
	reg := newRegistry(t)
	var script []*llm.ChatResponse
	for i := 0; i < 10; i++ {
		script = append(script, toolCall("", "listOdds", `{}`))
	}
	client := &scriptedClient{responses: script}

	out, err := New(client, reg.Registry).Run(context.Background(), user("hi"))
	require.NoError(t, err)
	assert.Equal(t, KindExhausted, out.Kind())
	assert.Len(t, client.requests, DefaultMaxSteps)
}

func TestRun_PlainAnswerCarriesSteps(t *testing.T) {
	reg := newRegistry(t)
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCall("c1", "listOdds", `{}`),
		toolCall("c2", "getStandings", `{}`),
		toolCall("c3", "tavilySearch", `{}`),
		text("No value on the board tonight.", llm.StopReasonStop),
	}}

	out, err := New(client, reg.Registry).Run(context.Background(), user("hi"))
	require.NoError(t, err)
	assert.Equal(t, PlainAnswer{
		Text: "No value on the board tonight.",
		Steps: []string{
			"Shopping for the best lines...",
			"Checking the standings...",
			"Researching team news and injuries...",
		},
	}, out)
}

func TestRun_PlainAnswerWithoutTools(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{text("Hello!", llm.StopReasonStop)}}

	out, err := New(client, newRegistry(t).Registry).Run(context.Background(), user("hi"))
	require.NoError(t, err)
	answer := out.(PlainAnswer)
	assert.Equal(t, "Hello!", answer.Text)
	assert.NotNil(t, answer.Steps)
	assert.Empty(t, answer.Steps)
}

func TestRun_LengthTruncatedAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{text("The Lakers", llm.StopReasonLength)}}

	out, err := New(client, newRegistry(t).Registry).Run(context.Background(), user("hi"))
	require.NoError(t, err)
	assert.Equal(t, "The Lakers"+truncatedSuffix, out.(PlainAnswer).Text)
}

func TestRun_UnknownToolContinues(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCall("c1", "listParlays", `{}`),
		toolCall("c2", decision.ToolName, finalArgs),
	}}

	out, conv, err := New(client, newRegistry(t).Registry).RunConversation(context.Background(), user("hi"))
	require.NoError(t, err)
	assert.Equal(t, KindFinal, out.Kind())

	last := conv[len(conv)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Contains(t, last.Content, `"ok":false`)
	assert.Contains(t, last.Content, "listParlays")
}

func TestRun_MalformedArgumentsContinue(t *testing.T) {
	reg := newRegistry(t)
	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCall("c1", "listOdds", `{"sport":`),
		text("done", llm.StopReasonStop),
	}}

	_, conv, err := New(client, reg.Registry).RunConversation(context.Background(), user("hi"))
	require.NoError(t, err)
	assert.Contains(t, conv[len(conv)-1].Content, "json parse error")
	assert.Zero(t, reg.calls["listOdds"].Load())
}

func TestRun_MalformedTerminalToolIsFatal(t *testing.T) {
	tests := map[string]string{
		"invalid json": `{"game": {"id": "g1"`,
		"missing game": `{"pick":{"team":"A","price":100,"bookmaker":"pinnacle"},"narrative":"n"}`,
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			client := &scriptedClient{responses: []*llm.ChatResponse{
				toolCall("c1", decision.ToolName, args),
				text("should not be reached", llm.StopReasonStop),
			}}

			out, err := New(client, newRegistry(t).Registry).Run(context.Background(), user("hi"))
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrContractViolation))
			assert.True(t, errors.Is(err, decision.ErrMalformed))
			assert.Len(t, client.requests, 1)
		})
	}
}

func TestRun_OnlyFirstToolCallRuns(t *testing.T) {
	reg := newRegistry(t)
	resp := toolCall("c1", "listOdds", `{}`)
	resp.Message.ToolCalls = append(resp.Message.ToolCalls,
		&llm.ToolCall{ID: "c2", Function: &llm.FunctionCall{Name: "tavilySearch", Arguments: `{}`}})
	client := &scriptedClient{responses: []*llm.ChatResponse{resp, text("ok", llm.StopReasonStop)}}

	_, conv, err := New(client, reg.Registry).RunConversation(context.Background(), user("hi"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), reg.calls["listOdds"].Load())
	assert.Zero(t, reg.calls["tavilySearch"].Load())
	assert.Len(t, conv[2].ToolCalls, 1)
}

func TestRun_InvalidInput(t *testing.T) {
	client := &scriptedClient{}
	o := New(client, newRegistry(t).Registry)

	_, err := o.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = o.Run(context.Background(), []llm.Message{{Role: "function", Content: "x"}})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Empty(t, client.requests)
}

func TestRun_CallerSystemPromptWins(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{text("ok", llm.StopReasonStop)}}
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: "custom"},
		{Role: llm.RoleUser, Content: "hi"},
	}

	_, err := New(client, newRegistry(t).Registry).Run(context.Background(), history)
	require.NoError(t, err)
	msgs := client.requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "custom", msgs[0].Content)
}

func TestRun_ModelError(t *testing.T) {
	client := &scriptedClient{err: errors.New("boom")}

	_, err := New(client, newRegistry(t).Registry).Run(context.Background(), user("hi"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModel))
	assert.Contains(t, err.Error(), "boom")
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &scriptedClient{responses: []*llm.ChatResponse{text("ok", llm.StopReasonStop)}}

	_, err := New(client, newRegistry(t).Registry).Run(ctx, user("hi"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.requests)
}

type recordingHandler struct {
	points []hook.HookPoint
	data   []*hook.HookData
}

func (h *recordingHandler) Name() string { return "recorder" }
func (h *recordingHandler) Points() []hook.HookPoint {
	return []hook.HookPoint{hook.OnRunStart, hook.OnRunEnd, hook.AfterToolExecution}
}
func (h *recordingHandler) Priority() int { return 0 }
func (h *recordingHandler) Handle(_ context.Context, data *hook.HookData) (*hook.Feedback, error) {
	h.points = append(h.points, data.Point)
	h.data = append(h.data, data)
	return hook.AllowFeedback(), nil
}

func TestRun_Hooks(t *testing.T) {
	rec := &recordingHandler{}
	m := hook.NewManager()
	m.Register(rec)

	client := &scriptedClient{responses: []*llm.ChatResponse{
		toolCall("c1", "listOdds", `{}`),
		toolCall("c2", decision.ToolName, finalArgs),
	}}
	_, err := New(client, newRegistry(t).Registry, WithHookManager(m)).Run(context.Background(), user("hi"))
	require.NoError(t, err)

	assert.Equal(t, []hook.HookPoint{hook.OnRunStart, hook.AfterToolExecution, hook.OnRunEnd}, rec.points)
	end := rec.data[2]
	assert.Equal(t, KindFinal, end.GetString(hook.KeyOutcome))
	assert.Equal(t, 2, end.GetInt(hook.KeySteps))
	assert.Equal(t, rec.data[0].GetString(hook.KeyRunID), end.GetString(hook.KeyRunID))
}
