// Package service runs one agent conversation per request. The HTTP, MCP
// and CLI surfaces all go through it.
package service

import (
	"context"
	"strings"

	"oddsy/internal/agent"
	"oddsy/internal/config"
	"oddsy/internal/hook"
	"oddsy/internal/llm"
	"oddsy/internal/logger"
	"oddsy/internal/response"
	"oddsy/internal/tools"
)

// Message is one inbound conversation turn.
type Message struct {
	Role    string `json:"role" jsonschema:"one of system, user, assistant or tool"`
	Content string `json:"content" jsonschema:"the text of the turn"`
}

// Request is the body of a chat call.
type Request struct {
	Messages []Message `json:"messages" jsonschema:"the conversation so far, oldest first"`
}

// History converts the inbound turns. Roles are normalized to lower case and
// validated by the orchestrator.
func (r Request) History() []llm.Message {
	out := make([]llm.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		out = append(out, llm.Message{
			Role:    llm.Role(strings.ToLower(strings.TrimSpace(m.Role))),
			Content: m.Content,
		})
	}
	return out
}

// Runner executes a conversation and formats its outcome. A non-nil error
// comes with a response of type "error".
type Runner interface {
	Run(ctx context.Context, history []llm.Message) (response.Response, error)
}

var _ Runner = (*Service)(nil)

type Service struct {
	client llm.Client
	creds  config.Credentials
	tools  tools.Options
	agent  agent.Config
	hooks  *hook.Manager
	log    *logger.Logger
}

type Option func(*Service)

func WithToolOptions(o tools.Options) Option {
	return func(s *Service) { s.tools = o }
}

func WithAgentConfig(c agent.Config) Option {
	return func(s *Service) { s.agent = c }
}

func WithHookManager(m *hook.Manager) Option {
	return func(s *Service) { s.hooks = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func New(client llm.Client, creds config.Credentials, opts ...Option) *Service {
	s := &Service{
		client: client,
		creds:  creds,
		agent:  agent.DefaultConfig(),
		log:    logger.Discard(),
	}
	for _, o := range opts {
		o(s)
	}

	for _, name := range tools.Missing(creds) {
		s.log.Warn("%s not set; its tools will not be offered to the model", name)
	}
	return s
}

// Run builds a fresh registry and orchestrator for this conversation.
func (s *Service) Run(ctx context.Context, history []llm.Message) (response.Response, error) {
	reg := tools.Build(s.creds, s.tools, s.log)

	opts := []agent.Option{agent.WithConfig(s.agent), agent.WithLogger(s.log)}
	if s.hooks != nil {
		opts = append(opts, agent.WithHookManager(s.hooks))
	}

	outcome, err := agent.New(s.client, reg, opts...).Run(ctx, history)
	if err != nil {
		return response.Failure(err), err
	}
	return response.Format(outcome), nil
}
