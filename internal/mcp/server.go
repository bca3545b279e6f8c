// Package mcp serves the agent as a Model Context Protocol tool.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"oddsy/internal/logger"
	"oddsy/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolName is the single tool the server exposes.
const ToolName = "run_agent"

// Server wraps an SDK server with one tool that runs a conversation and
// returns the response JSON as text.
type Server struct {
	server *mcp.Server
	runner service.Runner
	log    *logger.Logger
}

// NewServer creates the server and registers run_agent.
func NewServer(runner service.Runner, version string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: "oddsy", Version: version}, nil),
		runner: runner,
		log:    log,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolName,
		Description: "Run the Oddsy betting analyst on a conversation. Returns JSON with type final " +
			"(a moneyline pick with the game it was drawn from), answer, exhausted or error.",
	}, s.runAgent)
	return s
}

// Run serves over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves one session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) runAgent(ctx context.Context, _ *mcp.CallToolRequest, in service.Request) (*mcp.CallToolResult, any, error) {
	resp, err := s.runner.Run(ctx, in.History())
	if err != nil {
		s.log.Warn("run_agent failed: %v", err)
	}

	body, merr := json.Marshal(resp)
	if merr != nil {
		return nil, nil, fmt.Errorf("encode response: %w", merr)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
		IsError: err != nil,
	}, nil, nil
}
