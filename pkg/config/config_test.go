package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "XAI_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MAESTRO_TEST_HOST", "db.example.com")
	t.Setenv("MAESTRO_TEST_EMPTY", "")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no variables", "plain string", "plain string"},
		{"braced", "host=${MAESTRO_TEST_HOST}", "host=db.example.com"},
		{"simple", "host=$MAESTRO_TEST_HOST", "host=db.example.com"},
		{"default used", "host=${MAESTRO_TEST_EMPTY:-localhost}", "host=localhost"},
		{"default skipped", "host=${MAESTRO_TEST_HOST:-localhost}", "host=db.example.com"},
		{"unset braced", "host=${MAESTRO_TEST_UNSET_VAR}", "host="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnvVars(tt.in))
		})
	}
}

func TestLLMProviderConfigSetDefaults(t *testing.T) {
	clearProviderEnv(t)

	tests := []struct {
		providerType ProviderType
		wantHost     string
		wantTimeout  int
	}{
		{ProviderGemini, "https://generativelanguage.googleapis.com/v1beta", 60},
		{ProviderAnthropic, "https://api.anthropic.com", 60},
		{ProviderOpenAI, "https://api.openai.com/v1", 60},
		{ProviderXAI, "https://api.x.ai/v1", 60},
		{ProviderOllama, "http://localhost:11434", 120},
	}

	for _, tt := range tests {
		t.Run(string(tt.providerType), func(t *testing.T) {
			cfg := LLMProviderConfig{Type: tt.providerType, Model: "m"}
			cfg.SetDefaults()

			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantTimeout, cfg.Timeout)
			require.NotNil(t, cfg.Temperature)
			assert.Equal(t, 0.7, *cfg.Temperature)
			assert.Equal(t, 4096, cfg.MaxTokens)
			assert.Equal(t, 3, cfg.MaxRetries)
			assert.Equal(t, 2, cfg.RetryDelay)
		})
	}
}

func TestLLMProviderConfigSetDefaultsKeepsExplicitValues(t *testing.T) {
	clearProviderEnv(t)

	cfg := LLMProviderConfig{Type: ProviderOpenAI, Model: "m", Host: "http://proxy:9999", Timeout: 5}
	cfg.SetDefaults()

	assert.Equal(t, "http://proxy:9999", cfg.Host)
	assert.Equal(t, 5, cfg.Timeout)
}

func TestLLMProviderConfigAPIKeyFromEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg := LLMProviderConfig{Type: ProviderAnthropic, Model: "m"}
	cfg.SetDefaults()

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.True(t, cfg.Enabled())
}

func TestLLMProviderConfigOllamaDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg := LLMProviderConfig{Type: ProviderOllama, Model: "llama3.2"}
	cfg.SetDefaults()

	assert.Equal(t, "10m", cfg.KeepAlive)
	assert.True(t, cfg.Enabled(), "local server needs no API key")
}

func TestLLMProviderConfigValidate(t *testing.T) {
	badTemp := 3.0

	tests := []struct {
		name    string
		cfg     LLMProviderConfig
		wantErr string
	}{
		{"valid", LLMProviderConfig{Type: ProviderOpenAI, Model: "gpt-4o", APIKey: "k"}, ""},
		{"unknown type", LLMProviderConfig{Type: "mystery", Model: "m", APIKey: "k"}, "invalid provider type"},
		{"missing model", LLMProviderConfig{Type: ProviderOpenAI, APIKey: "k"}, "model is required"},
		{"missing key", LLMProviderConfig{Type: ProviderOpenAI, Model: "m"}, "api_key is required"},
		{"ollama without key", LLMProviderConfig{Type: ProviderOllama, Model: "m"}, ""},
		{"temperature range", LLMProviderConfig{Type: ProviderOpenAI, Model: "m", APIKey: "k", Temperature: &badTemp}, "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDecisionConfigSetDefaults(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg := DecisionConfig{}
	cfg.SetDefaults()

	assert.Equal(t, "gemini-2.5-flash-lite-preview-06-17", cfg.Model)
	assert.Equal(t, "gem-key", cfg.APIKey)
	assert.Equal(t, 200, cfg.MaxTokens)
	assert.Equal(t, 10, cfg.Timeout)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, 0.1, *cfg.Temperature)
	assert.True(t, cfg.Enabled())
}

func TestConfigSetDefaultsBuildsAllProviders(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "oa-key")

	cfg := &Config{}
	cfg.SetDefaults()

	require.Len(t, cfg.Providers, 5)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(5), cfg.Orchestrator.MaxConcurrentCalls)
	assert.Equal(t, 8080, cfg.Server.Port)

	// Only openai (env key) and ollama (keyless local) are enabled.
	enabled := cfg.EnabledProviders()
	require.Len(t, enabled, 2)
	assert.Equal(t, ProviderOpenAI, enabled[0].Type)
	assert.Equal(t, ProviderOllama, enabled[1].Type)

	require.NoError(t, cfg.Validate(), "disabled providers must not fail validation")
}
