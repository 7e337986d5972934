package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the generation backend.
type Config struct {
	Provider string `yaml:"provider"`

	OpenAI     OpenAIConfig     `yaml:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Mock       MockConfig       `yaml:"mock"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds one generation including retries.
	Timeout time.Duration `yaml:"timeout"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`

	// Referer and Title identify the app on openrouter.ai.
	Referer string `yaml:"referer"`
	Title   string `yaml:"title"`
}

// MockConfig configures the offline provider.
type MockConfig struct {
	// ResponseFile holds the reply returned for every request. Empty means
	// every request fails as unavailable.
	ResponseFile string `yaml:"response_file"`
}

// RetryConfig configures retries of transient provider failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns the OpenAI backend with gpt-4.1-mini.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderOpenAI,
		OpenAI:    OpenAIConfig{Model: "gpt-4.1-mini"},
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{
			Model: "openai/gpt-4.1-mini",
			Title: "formcraft",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv returns DefaultConfig with FORMCRAFT_* overrides applied.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overlays FORMCRAFT_* environment variables onto cfg. The
// generic OPENAI_API_KEY and ANTHROPIC_API_KEY are honoured when no
// prefixed key is set.
func ApplyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.Provider, "FORMCRAFT_LLM_PROVIDER")

	set(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&cfg.OpenAI.APIKey, "FORMCRAFT_OPENAI_API_KEY")
	set(&cfg.OpenAI.Model, "OPENAI_MODEL")
	set(&cfg.OpenAI.Model, "FORMCRAFT_OPENAI_MODEL")
	set(&cfg.OpenAI.BaseURL, "FORMCRAFT_OPENAI_BASE_URL")

	set(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	set(&cfg.Anthropic.APIKey, "FORMCRAFT_ANTHROPIC_API_KEY")
	set(&cfg.Anthropic.Model, "FORMCRAFT_ANTHROPIC_MODEL")
	set(&cfg.Anthropic.BaseURL, "FORMCRAFT_ANTHROPIC_BASE_URL")

	set(&cfg.Gemini.APIKey, "FORMCRAFT_GEMINI_API_KEY")
	set(&cfg.Gemini.Model, "FORMCRAFT_GEMINI_MODEL")
	set(&cfg.Gemini.BaseURL, "FORMCRAFT_GEMINI_BASE_URL")

	set(&cfg.OpenRouter.APIKey, "FORMCRAFT_OPENROUTER_API_KEY")
	set(&cfg.OpenRouter.Model, "FORMCRAFT_OPENROUTER_MODEL")
	set(&cfg.OpenRouter.BaseURL, "FORMCRAFT_OPENROUTER_BASE_URL")

	set(&cfg.Mock.ResponseFile, "FORMCRAFT_MOCK_RESPONSE_FILE")

	if v := os.Getenv("FORMCRAFT_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("FORMCRAFT_OPENAI_API_KEY (or OPENAI_API_KEY) is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("FORMCRAFT_ANTHROPIC_API_KEY (or ANTHROPIC_API_KEY) is required for the anthropic provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("FORMCRAFT_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("FORMCRAFT_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("LLM timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
