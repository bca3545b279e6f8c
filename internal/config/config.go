package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported model providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config represents the complete Oddsy configuration
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Agent    AgentConfig    `yaml:"agent"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Hooks    HooksConfig    `yaml:"hooks"`
}

// LLMConfig selects the model backend
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai" or "gemini"
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// AgentConfig controls the orchestration loop
type AgentConfig struct {
	// MaxSteps is the number of inference rounds before the run gives up
	MaxSteps int `yaml:"max_steps"`
	// SystemPrompt replaces the built-in prompt when set
	SystemPrompt string `yaml:"system_prompt"`
}

// UpstreamConfig is the retry policy shared by every tool family
type UpstreamConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
	Timeout   time.Duration `yaml:"timeout"`
	ListLimit int           `yaml:"list_limit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HooksConfig contains hook-related settings
type HooksConfig struct {
	// ToolConfirm enables user confirmation before specified tools; "*"
	// means every tool
	ToolConfirm []string `yaml:"tool_confirm"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  ProviderOpenAI,
			Model:     "gpt-4o",
			MaxTokens: 2048,
		},
		Agent: AgentConfig{
			MaxSteps: 5,
		},
		Upstream: UpstreamConfig{
			Attempts:  3,
			BaseDelay: time.Second,
			Timeout:   15 * time.Second,
			ListLimit: 5,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the YAML config file. Values not present in the
// file keep their defaults, and ${VAR} references are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads config with fallback to default locations
// Checks: ./oddsy.yaml, ./configs/oddsy.yaml, ~/.config/oddsy/oddsy.yaml, /etc/oddsy/oddsy.yaml
func LoadWithDefaults() (*Config, error) {
	for _, loc := range Locations() {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	// No config found - defaults are not an error
	return Default(), nil
}

// Locations lists the config paths in lookup order
func Locations() []string {
	locations := []string{
		"./oddsy.yaml",
		"./configs/oddsy.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "oddsy", "oddsy.yaml"))
	}
	return append(locations, "/etc/oddsy/oddsy.yaml")
}

// Validate checks config correctness
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider %q is not supported (use %s or %s)", c.LLM.Provider, ProviderOpenAI, ProviderGemini)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens cannot be negative")
	}

	if c.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent.max_steps must be at least 1")
	}

	if c.Upstream.Attempts < 1 {
		return fmt.Errorf("upstream.attempts must be at least 1")
	}
	if c.Upstream.BaseDelay < 0 || c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream durations cannot be negative")
	}
	if c.Upstream.ListLimit < 0 {
		return fmt.Errorf("upstream.list_limit cannot be negative")
	}

	// Tool names follow the same pattern the model APIs enforce
	for _, name := range c.Hooks.ToolConfirm {
		if name == "" {
			return fmt.Errorf("hooks.tool_confirm: tool name cannot be empty")
		}
		if name == "*" {
			continue
		}
		for _, ch := range name {
			if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
				return fmt.Errorf("hooks.tool_confirm: tool name '%s' contains invalid character '%c'", name, ch)
			}
		}
	}

	return nil
}
