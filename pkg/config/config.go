// Package config holds the environment-driven configuration for all
// components. Missing credentials disable the corresponding provider or
// tool; they never crash startup.
package config

import "fmt"

// OrchestratorConfig tunes the turn pipeline.
type OrchestratorConfig struct {
	// MaxConcurrentCalls bounds concurrent outbound model/search calls.
	MaxConcurrentCalls int64 `json:"max_concurrent_calls,omitempty"`

	// AgenticLoopMax caps model<->tool iterations inside one provider call.
	AgenticLoopMax int `json:"agentic_loop_max,omitempty"`

	// RouterTimeoutSeconds bounds the routing LLM call.
	RouterTimeoutSeconds int `json:"router_timeout_seconds,omitempty"`
}

func (c *OrchestratorConfig) SetDefaults() {
	if c.MaxConcurrentCalls == 0 {
		c.MaxConcurrentCalls = 5
	}
	if c.AgenticLoopMax == 0 {
		c.AgenticLoopMax = 3
	}
	if c.RouterTimeoutSeconds == 0 {
		c.RouterTimeoutSeconds = 10
	}
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host           string `json:"host,omitempty"`
	Port           int    `json:"port,omitempty"`
	MetricsEnabled bool   `json:"metrics_enabled,omitempty"`
	TracingEnabled bool   `json:"tracing_enabled,omitempty"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// Config is the root configuration.
type Config struct {
	Providers    []LLMProviderConfig `json:"providers,omitempty"`
	Decision     DecisionConfig      `json:"decision,omitempty"`
	Tools        ToolsConfig         `json:"tools,omitempty"`
	Search       SearchConfig        `json:"search,omitempty"`
	Store        StoreConfig         `json:"store,omitempty"`
	Orchestrator OrchestratorConfig  `json:"orchestrator,omitempty"`
	Server       ServerConfig        `json:"server,omitempty"`
	LogLevel     string              `json:"log_level,omitempty"`
}

// Load reads .env files and builds a fully defaulted configuration with one
// provider entry per known provider type.
func Load() (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) SetDefaults() {
	if len(c.Providers) == 0 {
		c.Providers = defaultProviders()
	}
	for i := range c.Providers {
		c.Providers[i].SetDefaults()
	}

	c.Decision.SetDefaults()
	c.Tools.SetDefaults()
	c.Search.SetDefaults()
	c.Store.SetDefaults()
	c.Orchestrator.SetDefaults()
	c.Server.SetDefaults()

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks only the providers that have credentials; disabled entries
// are skipped.
func (c *Config) Validate() error {
	for i := range c.Providers {
		p := &c.Providers[i]
		if !p.Enabled() {
			continue
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("provider %q: %w", p.Type, err)
		}
	}
	return nil
}

// EnabledProviders returns the providers with usable credentials.
func (c *Config) EnabledProviders() []LLMProviderConfig {
	var enabled []LLMProviderConfig
	for _, p := range c.Providers {
		if p.Enabled() {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

func defaultProviders() []LLMProviderConfig {
	return []LLMProviderConfig{
		{Type: ProviderGemini, Model: "gemini-2.5-flash"},
		{Type: ProviderAnthropic, Model: "claude-sonnet-4-20250514"},
		{Type: ProviderOpenAI, Model: "gpt-4o"},
		{Type: ProviderXAI, Model: "grok-2"},
		{Type: ProviderOllama, Model: "llama3.2"},
	}
}
