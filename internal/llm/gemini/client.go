package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"oddsy/internal/llm"

	"google.golang.org/genai"
)

var _ llm.Client = (*Client)(nil)

// generator is the slice of the genai SDK the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client for the Google Gemini API.
type Client struct {
	models generator
	model  string
}

// NewClient creates a Gemini client for the given API key and model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Client{models: gc.Models, model: model}, nil
}

func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, contents := convertMessages(req.Messages)

	config := &genai.GenerateContentConfig{
		Tools:           convertTools(req.Tools),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		config.Temperature = &temp
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return convertResponse(resp)
}

func (c *Client) Provider() string {
	return "gemini"
}

func (c *Client) Model() string {
	return c.model
}

// convertMessages splits system turns into a single instruction and maps the
// rest onto Gemini contents.
func convertMessages(msgs []llm.Message) (string, []*genai.Content) {
	var system []string
	var result []*genai.Content

	for _, msg := range msgs {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleUser:
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case llm.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Function.Name,
						Args: args,
					},
				})
			}
			result = append(result, &genai.Content{Role: "model", Parts: parts})
		case llm.RoleTool:
			var response map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
				response = map[string]any{"output": msg.Content}
			}
			result = append(result, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.ToolCallID,
						Name:     msg.Name,
						Response: response,
					},
				}},
			})
		}
	}

	return strings.Join(system, "\n\n"), result
}

func convertTools(tools []*llm.ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Function.Name,
			Description:          t.Function.Description,
			ParametersJsonSchema: t.Function.Parameters,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func convertResponse(resp *genai.GenerateContentResponse) (*llm.ChatResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("gemini: no candidates in response")
	}
	candidate := resp.Candidates[0]

	result := &llm.ChatResponse{
		Message:    llm.Message{Role: llm.RoleAssistant},
		StopReason: llm.StopReasonStop,
	}
	if resp.UsageMetadata != nil {
		result.Usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part.FunctionCall != nil {
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return nil, fmt.Errorf("gemini: encode args for %s: %w", part.FunctionCall.Name, err)
				}
				id := part.FunctionCall.ID
				if id == "" {
					id = llm.NewToolCallID(part.FunctionCall.Name, len(result.Message.ToolCalls))
				}
				result.Message.ToolCalls = append(result.Message.ToolCalls, &llm.ToolCall{
					ID:   id,
					Type: "function",
					Function: &llm.FunctionCall{
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					},
				})
				continue
			}
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
		}
		result.Message.Content = text.String()
	}

	switch {
	case len(result.Message.ToolCalls) > 0:
		result.StopReason = llm.StopReasonToolCalls
	case candidate.FinishReason == genai.FinishReasonMaxTokens:
		result.StopReason = llm.StopReasonLength
	}
	return result, nil
}
