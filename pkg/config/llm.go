package config

import (
	"fmt"
	"os"
)

// ProviderType identifies a model provider.
type ProviderType string

const (
	ProviderGemini    ProviderType = "gemini"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderXAI       ProviderType = "xai"
	ProviderOllama    ProviderType = "ollama"
)

// ValidProvider reports whether t names a known provider.
func ValidProvider(t ProviderType) bool {
	switch t {
	case ProviderGemini, ProviderAnthropic, ProviderOpenAI, ProviderXAI, ProviderOllama:
		return true
	}
	return false
}

// LLMProviderConfig configures one provider adapter.
type LLMProviderConfig struct {
	Type        ProviderType `json:"type"`
	Model       string       `json:"model"`
	APIKey      string       `json:"api_key,omitempty"`
	Host        string       `json:"host,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	TopP        *float64     `json:"top_p,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`

	// Timeout is the request timeout in seconds.
	Timeout    int `json:"timeout,omitempty"`
	MaxRetries int `json:"max_retries,omitempty"`
	// RetryDelay is the base backoff in seconds.
	RetryDelay int `json:"retry_delay,omitempty"`

	// KeepAlive keeps the local model loaded between requests (ollama).
	KeepAlive string `json:"keep_alive,omitempty"`

	// System prompt prepended by the adapter.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// SetDefaults applies per-provider defaults.
func (c *LLMProviderConfig) SetDefaults() {
	if c.Host == "" {
		switch c.Type {
		case ProviderGemini:
			c.Host = "https://generativelanguage.googleapis.com/v1beta"
		case ProviderAnthropic:
			c.Host = "https://api.anthropic.com"
		case ProviderOpenAI:
			c.Host = "https://api.openai.com/v1"
		case ProviderXAI:
			c.Host = "https://api.x.ai/v1"
		case ProviderOllama:
			c.Host = "http://localhost:11434"
		}
	}

	if c.APIKey == "" {
		c.APIKey = ProviderAPIKey(c.Type)
	}

	if c.Temperature == nil {
		temp := 0.7
		c.Temperature = &temp
	}

	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}

	if c.Timeout == 0 {
		if c.Type == ProviderOllama {
			// Local servers may need to load the model first.
			c.Timeout = 120
		} else {
			c.Timeout = 60
		}
	}

	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2
	}

	if c.Type == ProviderOllama && c.KeepAlive == "" {
		c.KeepAlive = "10m"
	}
}

// Validate checks the provider configuration.
func (c *LLMProviderConfig) Validate() error {
	if !ValidProvider(c.Type) {
		return fmt.Errorf("invalid provider type %q (valid: gemini, anthropic, openai, xai, ollama)", c.Type)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required for provider %q", c.Type)
	}

	// Local servers need no key.
	if c.Type != ProviderOllama && c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider %q", c.Type)
	}

	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}

	return nil
}

// Enabled reports whether this provider can be used with the present
// credentials. A missing key disables the provider, it never crashes startup.
func (c *LLMProviderConfig) Enabled() bool {
	return c.Type == ProviderOllama || c.APIKey != ""
}

// DecisionConfig configures the small JSON-only decision model shared by the
// router, context analyzer, and search quality rater.
type DecisionConfig struct {
	Model       string   `json:"model"`
	APIKey      string   `json:"api_key,omitempty"`
	Host        string   `json:"host,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	// Timeout is the decision call timeout in seconds.
	Timeout int `json:"timeout,omitempty"`
}

func (c *DecisionConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash-lite-preview-06-17"
	}
	if c.Host == "" {
		c.Host = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Temperature == nil {
		temp := 0.1
		c.Temperature = &temp
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 200
	}
	if c.Timeout == 0 {
		c.Timeout = 10
	}
}

func (c *DecisionConfig) Enabled() bool {
	return c.APIKey != ""
}
