package llms

import (
	"reflect"
	"testing"

	"github.com/maestrohq/maestro/pkg/config"
)

func TestCreateFromConfigSelectsAdapter(t *testing.T) {
	tests := []struct {
		providerType config.ProviderType
		wantType     string
	}{
		{config.ProviderGemini, "*llms.GeminiProvider"},
		{config.ProviderOpenAI, "*llms.OpenAIProvider"},
		{config.ProviderXAI, "*llms.OpenAIProvider"},
		{config.ProviderAnthropic, "*llms.AnthropicProvider"},
		{config.ProviderOllama, "*llms.OllamaProvider"},
	}

	for _, tt := range tests {
		provider, err := CreateFromConfig(testProviderConfig(tt.providerType, "http://unused.invalid"), nil)
		if err != nil {
			t.Errorf("CreateFromConfig(%s) error = %v", tt.providerType, err)
			continue
		}
		if got := reflect.TypeOf(provider).String(); got != tt.wantType {
			t.Errorf("CreateFromConfig(%s) = %s, want %s", tt.providerType, got, tt.wantType)
		}
	}
}

func TestCreateFromConfigUnsupportedType(t *testing.T) {
	cfg := testProviderConfig("mystery", "http://unused.invalid")
	if _, err := CreateFromConfig(cfg, nil); err == nil {
		t.Error("expected an error for an unsupported provider type")
	}
}

func TestRegisterEnabledSkipsMissingCredentials(t *testing.T) {
	anthropic := config.LLMProviderConfig{Type: config.ProviderAnthropic, Model: "claude", APIKey: "k"}
	anthropic.SetDefaults()
	openai := config.LLMProviderConfig{Type: config.ProviderOpenAI, Model: "gpt"}
	openai.SetDefaults()
	ollama := config.LLMProviderConfig{Type: config.ProviderOllama, Model: "llama3"}
	ollama.SetDefaults()

	r := NewProviderRegistry()
	if err := r.RegisterEnabled([]config.LLMProviderConfig{anthropic, openai, ollama}, nil); err != nil {
		t.Fatalf("RegisterEnabled() error = %v", err)
	}

	names := r.Names()
	if !reflect.DeepEqual(names, []string{"anthropic", "ollama"}) {
		t.Errorf("Names() = %v, want keyless openai skipped and ollama kept", names)
	}
}

func TestProviderRegistryClose(t *testing.T) {
	r := NewProviderRegistry()
	if err := r.Register("ollama", NewOllamaProvider(testProviderConfig(config.ProviderOllama, "http://unused.invalid"))); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
