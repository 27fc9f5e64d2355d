package llms

import (
	"fmt"

	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/logger"
	"github.com/maestrohq/maestro/pkg/registry"
	"github.com/maestrohq/maestro/pkg/tools"
)

// ProviderRegistry holds the configured provider adapters keyed by name.
type ProviderRegistry struct {
	registry.Registry[Provider]
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		Registry: registry.NewBaseRegistry[Provider](),
	}
}

// CreateFromConfig instantiates the adapter for one provider config.
// Adapters that run an agentic tool loop take the tool registry; the rest
// rely on the search passage for grounding.
func CreateFromConfig(cfg *config.LLMProviderConfig, toolRegistry *tools.ToolRegistry) (Provider, error) {
	switch cfg.Type {
	case config.ProviderGemini:
		return NewGeminiProvider(cfg, toolRegistry), nil
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg, toolRegistry), nil
	case config.ProviderXAI:
		return NewXAIProvider(cfg, toolRegistry), nil
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg), nil
	case config.ProviderOllama:
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", cfg.Type)
	}
}

// RegisterEnabled builds and registers an adapter for every enabled
// provider config, keyed by provider type. Providers missing credentials
// are skipped with a log line rather than failing startup.
func (r *ProviderRegistry) RegisterEnabled(providers []config.LLMProviderConfig, toolRegistry *tools.ToolRegistry) error {
	log := logger.GetLogger()

	for i := range providers {
		cfg := &providers[i]
		name := string(cfg.Type)

		if !cfg.Enabled() {
			log.Info("provider disabled: no API key", "provider", name)
			continue
		}

		provider, err := CreateFromConfig(cfg, toolRegistry)
		if err != nil {
			return fmt.Errorf("create provider %q: %w", name, err)
		}

		if err := r.Register(name, provider); err != nil {
			return fmt.Errorf("register provider %q: %w", name, err)
		}

		log.Info("provider registered", "provider", name, "model", cfg.Model)
	}

	return nil
}

// Close shuts down every registered adapter.
func (r *ProviderRegistry) Close() error {
	var firstErr error
	for _, name := range r.Names() {
		provider, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
