package agent

import (
	"context"

	"oddsy/internal/llm"
)

// Runner drives one conversation to exactly one terminal Outcome.
type Runner interface {
	Run(ctx context.Context, history []llm.Message) (Outcome, error)
}

type Config struct {
	Temperature float32
	MaxTokens   int
	// MaxSteps bounds the inference rounds of one run
	MaxSteps int
	// SystemPrompt is prepended unless the history brings its own
	SystemPrompt string
}

// DefaultMaxSteps is the step budget of a run.
const DefaultMaxSteps = 5

func DefaultConfig() Config {
	return Config{
		MaxTokens:    2048,
		MaxSteps:     DefaultMaxSteps,
		SystemPrompt: DefaultSystemPrompt,
	}
}
