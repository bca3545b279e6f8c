package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"oddsy/internal/llm"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeServer(t *testing.T, reply string, inspect func(body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		if inspect != nil {
			inspect(body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat_ToolCall(t *testing.T) {
	reply := `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "listOdds", "arguments": "{\"sport\":\"nba\"}"}
				}]
			}
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`

	var seen map[string]any
	srv := newFakeServer(t, reply, func(body map[string]any) { seen = body })

	c := NewClient("sk-test", "gpt-4o", srv.URL+"/v1")
	resp, err := c.Chat(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "best nba bet?"}},
		Tools: []*llm.ToolDefinition{{
			Type: "function",
			Function: &llm.FunctionDef{
				Name:        "listOdds",
				Description: "odds",
				Parameters: &jsonschema.Schema{
					Type:       "object",
					Properties: map[string]*jsonschema.Schema{"sport": {Type: "string"}},
					Required:   []string{"sport"},
				},
			},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, llm.StopReasonToolCalls, resp.StopReason)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, "listOdds", resp.Message.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"sport":"nba"}`, resp.Message.ToolCalls[0].Function.Arguments)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	assert.Equal(t, false, seen["parallel_tool_calls"])
	tools, ok := seen["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
}

func TestChat_TextAndLength(t *testing.T) {
	tests := []struct {
		name   string
		finish string
		want   llm.StopReason
	}{
		{"stop", "stop", llm.StopReasonStop},
		{"length", "length", llm.StopReasonLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := `{"id":"x","object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"finish_reason":"` +
				tt.finish + `","message":{"role":"assistant","content":"Take the Knicks."}}]}`

			srv := newFakeServer(t, reply, func(body map[string]any) {
				_, hasParallel := body["parallel_tool_calls"]
				assert.False(t, hasParallel, "parallel_tool_calls must be omitted without tools")
			})

			c := NewClient("sk-test", "gpt-4o", srv.URL+"/v1")
			resp, err := c.Chat(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StopReason)
			assert.Equal(t, "Take the Knicks.", resp.Message.Content)
			assert.Empty(t, resp.Message.ToolCalls)
		})
	}
}

func TestChat_NoChoices(t *testing.T) {
	srv := newFakeServer(t, `{"id":"x","object":"chat.completion","model":"gpt-4o","choices":[]}`, nil)

	c := NewClient("sk-test", "gpt-4o", srv.URL+"/v1")
	_, err := c.Chat(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestConvertMessages_ToolTurn(t *testing.T) {
	c := NewClient("sk-test", "gpt-4o")
	msgs := c.convertMessages([]llm.Message{
		{Role: llm.RoleAssistant, ToolCalls: []*llm.ToolCall{{
			ID:       "call_9",
			Function: &llm.FunctionCall{Name: "tavilySearch", Arguments: `{"query":"x"}`},
		}}},
		{Role: llm.RoleTool, ToolCallID: "call_9", Name: "tavilySearch", Content: `{"ok":true}`},
	})

	require.Len(t, msgs, 2)
	require.Len(t, msgs[0].ToolCalls, 1)
	assert.Equal(t, "call_9", msgs[0].ToolCalls[0].ID)
	assert.Equal(t, "call_9", msgs[1].ToolCallID)
	assert.Equal(t, "tavilySearch", msgs[1].Name)
}
