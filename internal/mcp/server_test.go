package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"oddsy/internal/agent"
	"oddsy/internal/llm"
	"oddsy/internal/response"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	resp    response.Response
	err     error
	history []llm.Message
}

func (f *fakeRunner) Run(_ context.Context, history []llm.Message) (response.Response, error) {
	f.history = history
	if f.err != nil {
		return response.Failure(f.err), f.err
	}
	return f.resp, nil
}

func connect(t *testing.T, runner *fakeRunner) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()

	ss, err := NewServer(runner, "test", nil).Connect(ctx, st)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callRunAgent(t *testing.T, cs *mcp.ClientSession) (*mcp.CallToolResult, map[string]any) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: ToolName,
		Arguments: map[string]any{
			"messages": []map[string]any{{"role": "user", "content": "Best NBA bet?"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "got %T", res.Content[0])

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return res, out
}

func TestServer_ListsRunAgent(t *testing.T) {
	cs := connect(t, &fakeRunner{})

	var names []string
	for tool, err := range cs.Tools(context.Background(), nil) {
		require.NoError(t, err)
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{ToolName}, names)
}

func TestServer_RunAgent(t *testing.T) {
	runner := &fakeRunner{resp: response.Response{Type: response.TypeExhausted, Content: agent.BudgetExhaustedMessage}}
	cs := connect(t, runner)

	res, out := callRunAgent(t, cs)
	assert.False(t, res.IsError)
	assert.Equal(t, "exhausted", out["type"])
	assert.Equal(t, agent.BudgetExhaustedMessage, out["content"])
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "Best NBA bet?"}}, runner.history)
}

func TestServer_RunAgentFailure(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: missing game", agent.ErrContractViolation)}
	cs := connect(t, runner)

	res, out := callRunAgent(t, cs)
	assert.True(t, res.IsError)
	assert.Equal(t, "error", out["type"])
	assert.Contains(t, out["error"], "missing game")
}
