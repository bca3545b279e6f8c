package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Credentials holds the API keys read from the environment. A missing
// upstream key disables that tool family; it is not an error.
type Credentials struct {
	OpenAIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_API_BASE_URL"`
	GeminiKey     string `envconfig:"GEMINI_API_KEY"`
	OddsKey       string `envconfig:"ODDS_API_KEY"`
	SportsKey     string `envconfig:"SPORTS_API_KEY"`
	TavilyKey     string `envconfig:"TAVILY_API_KEY"`
}

// LoadCredentials reads credentials from the environment after loading an
// optional .env file from the working directory.
func LoadCredentials() (Credentials, error) {
	// A missing .env file is fine
	_ = godotenv.Load()
	return CredentialsFromEnv()
}

// CredentialsFromEnv reads credentials without touching .env files.
func CredentialsFromEnv() (Credentials, error) {
	var c Credentials
	if err := envconfig.Process("", &c); err != nil {
		return Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	return c, nil
}

// ModelKey returns the key for provider, or an error naming the variable
// to set.
func (c Credentials) ModelKey(provider string) (string, error) {
	switch provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return "", fmt.Errorf("OPENAI_API_KEY is required for the %s provider", provider)
		}
		return c.OpenAIKey, nil
	case ProviderGemini:
		if c.GeminiKey == "" {
			return "", fmt.Errorf("GEMINI_API_KEY is required for the %s provider", provider)
		}
		return c.GeminiKey, nil
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}
}

// Secrets lists every non-empty key, for redaction.
func (c Credentials) Secrets() []string {
	var out []string
	for _, s := range []string{c.OpenAIKey, c.GeminiKey, c.OddsKey, c.SportsKey, c.TavilyKey} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// String reports which keys are set without revealing them.
func (c Credentials) String() string {
	return fmt.Sprintf("openai=%s gemini=%s odds=%s sports=%s tavily=%s",
		set(c.OpenAIKey), set(c.GeminiKey), set(c.OddsKey), set(c.SportsKey), set(c.TavilyKey))
}

func set(s string) string {
	if s == "" {
		return "unset"
	}
	return "set"
}
