// Package observability wires OpenTelemetry tracing and metrics around the
// turn pipeline: routing, search, context analysis, provider calls, tools.
package observability

// Span names.
const (
	SpanTurn        = "maestro.turn"
	SpanRouting     = "maestro.routing"
	SpanSearch      = "maestro.search"
	SpanAnalysis    = "maestro.context_analysis"
	SpanLLMRequest  = "maestro.llm.request"
	SpanToolExecute = "maestro.tool.execute"
)

// Common span attribute keys.
const (
	AttrConversationID  = "conversation.id"
	AttrRouteKind       = "routing.kind"
	AttrRoutePrimary    = "routing.primary_tool"
	AttrRouteMethod     = "routing.method"
	AttrRouteConfidence = "routing.confidence"
	AttrRouteFallback   = "routing.fallback"
	AttrSearchEngine    = "search.engine"
	AttrSearchScore     = "search.score"
	AttrLLMModel        = "llm.model"
	AttrLLMProvider     = "llm.provider"
	AttrLLMTokensInput  = "llm.tokens.input"
	AttrLLMTokensOutput = "llm.tokens.output"
	AttrToolName        = "tool.name"
)
