package llms

import (
	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/tools"
)

// XAIProvider is the Grok adapter. xAI exposes an OpenAI-compatible
// chat-completions API, so the adapter is the OpenAI one pointed at
// api.x.ai with its own provider tag for spans and metrics.
type XAIProvider = OpenAIProvider

func NewXAIProvider(cfg *config.LLMProviderConfig, registry *tools.ToolRegistry) *XAIProvider {
	return newOpenAIShapeProvider(cfg, registry, "xai")
}
