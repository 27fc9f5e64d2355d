package router

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestrohq/maestro/pkg/llms"
	"github.com/maestrohq/maestro/pkg/logger"
	"github.com/maestrohq/maestro/pkg/observability"
)

// routingPrompt is the fixed instruction for the decision model. It
// enumerates the tools, the route kinds, selection heuristics, and the
// strict reply schema.
const routingPrompt = `You are an expert AI Query Router for a multi-modal AI assistant. Your job is to analyze user queries and determine the optimal routing strategy to provide the most accurate, helpful response.

**AVAILABLE TOOLS:**
1. **get_weather_forecast** - Get weather forecast for any worldwide location (1-5 days)
2. **get_home_weather** - Get weather from user's personal weather station at home
3. **get_pws_current_conditions** - Get current conditions from Personal Weather Station (PWS)
4. **brave_search** - General web search using Brave (privacy-focused, diverse results)
5. **serper_search** - Google-powered search via Serper (structured data, local results)

**ROUTING OPTIONS:**
- **tool_direct**: Use a specific tool immediately (high confidence)
- **tool_with_search**: Use tool but verify/supplement with search (medium confidence)
- **search_only**: Use search without tools (for current events, facts, etc.)
- **model_knowledge**: Use AI model's internal knowledge (no tools/search needed)
- **combined**: Use multiple approaches together

**DECISION CRITERIA:**

**Weather Queries -> Tools:**
- "weather in [location]" -> get_weather_forecast
- "forecast for [location]" -> get_weather_forecast
- "weather at home/my weather" -> get_home_weather
- "PWS/weather station" -> get_pws_current_conditions
- "temperature outside" -> get_home_weather (if ambiguous location)

**Current Events/Facts -> Search:**
- Recent news, events, stock prices -> brave_search
- Business hours, addresses, phone numbers -> serper_search
- "What happened..." -> brave_search
- "Store hours for..." -> serper_search

**General Knowledge -> Model:**
- Historical facts, science concepts -> model_knowledge
- Creative tasks (write, explain) -> model_knowledge
- Math problems -> model_knowledge
- Conversational queries -> model_knowledge

**Edge Cases:**
- Fictional locations ("Middle Earth weather") -> model_knowledge
- Historical questions ("history of weather") -> model_knowledge
- Vague queries ("what's happening") -> search_only with brave_search
- Personal but unclear ("check temperature") -> get_home_weather

**CONFIDENCE LEVELS:**
- **High (0.9+)**: Clear, unambiguous queries with obvious tool match
- **Medium (0.7-0.8)**: Reasonable match but might need verification
- **Low (0.5-0.6)**: Uncertain, might need fallback options

**RESPONSE FORMAT:**
Respond with a JSON object containing:
- "routing_decision": One of [tool_direct, tool_with_search, search_only, model_knowledge, combined]
- "primary_tool": Tool name (or null if not using tools)
- "search_provider": "brave" or "serper" (or null if not searching)
- "confidence": Float between 0.0 and 1.0
- "reasoning": Clear explanation of your decision
- "fallback_options": Array of alternative approaches if primary fails

**YOUR TASK:** Analyze the user query and respond with the JSON object showing your routing decision.`

// llmRoutingReply is the strict reply schema from the decision model.
type llmRoutingReply struct {
	RoutingDecision string   `json:"routing_decision"`
	PrimaryTool     *string  `json:"primary_tool"`
	SearchProvider  *string  `json:"search_provider"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	FallbackOptions []string `json:"fallback_options"`
}

// Router is the LLM-first router with a deterministic rule fallback. Every
// decision increments either the LLM-success counter or the backup counter.
type Router struct {
	decision *llms.DecisionClient
	rules    *RuleRouter
	tracker  *UsageTracker
	timeout  time.Duration
}

func New(decision *llms.DecisionClient, timeout time.Duration) *Router {
	return &Router{
		decision: decision,
		rules:    NewRuleRouter(),
		tracker:  NewUsageTracker(),
		timeout:  timeout,
	}
}

// Tracker exposes the usage counters for ops surfaces.
func (r *Router) Tracker() *UsageTracker {
	return r.tracker
}

// Route classifies the query. The LLM path runs first under the router
// timeout; any transport, timeout, or parse failure falls back to rules
// with the reason recorded.
func (r *Router) Route(ctx context.Context, query string) RoutingDecision {
	tracer := observability.GetTracer("maestro.router")
	ctx, span := tracer.Start(ctx, observability.SpanRouting)
	defer span.End()

	decision, err := r.routeLLM(ctx, query)
	if err == nil {
		r.tracker.RecordLLMSuccess()
		span.SetAttributes(
			attribute.String(observability.AttrRouteKind, string(decision.Kind)),
			attribute.Float64(observability.AttrRouteConfidence, decision.Confidence),
			attribute.Bool(observability.AttrRouteFallback, false),
		)
		return decision
	}

	logger.GetLogger().Warn("LLM routing failed, using fallback", "error", err)
	r.tracker.RecordBackup("LLM routing failed")
	span.RecordError(err)

	fallback := r.fallbackRoute(query)
	span.SetAttributes(
		attribute.String(observability.AttrRouteKind, string(fallback.Kind)),
		attribute.Float64(observability.AttrRouteConfidence, fallback.Confidence),
		attribute.Bool(observability.AttrRouteFallback, true),
	)
	return fallback
}

func (r *Router) routeLLM(ctx context.Context, query string) (RoutingDecision, error) {
	if r.decision == nil || !r.decision.Enabled() {
		return RoutingDecision{}, fmt.Errorf("decision model not available")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.decision.GenerateJSON(ctx, routingPrompt+"\n\nUser query: "+query)
	if err != nil {
		return RoutingDecision{}, err
	}

	var reply llmRoutingReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return RoutingDecision{}, fmt.Errorf("malformed routing JSON: %w", err)
	}

	kind := RouteKind(reply.RoutingDecision)
	if !ValidRouteKind(kind) {
		return RoutingDecision{}, fmt.Errorf("unknown route kind %q", reply.RoutingDecision)
	}

	decision := RoutingDecision{
		Kind:            kind,
		Confidence:      reply.Confidence,
		Reasoning:       fmt.Sprintf("LLM: %s (response_time: %.2fs)", reply.Reasoning, time.Since(start).Seconds()),
		FallbackOptions: reply.FallbackOptions,
	}
	if reply.PrimaryTool != nil {
		decision.PrimaryTool = *reply.PrimaryTool
	}
	if reply.SearchProvider != nil {
		decision.SearchProvider = *reply.SearchProvider
	}

	// Search routes always carry an engine.
	if decision.NeedsSearch() && decision.SearchProvider == "" {
		decision.SearchProvider = "brave"
	}

	return decision, nil
}

// fallbackRoute runs the rule table, marking the reasoning so telemetry
// and UI can see the backup path was taken.
func (r *Router) fallbackRoute(query string) RoutingDecision {
	if r.rules == nil {
		return RoutingDecision{
			Kind:       RouteModelKnowledge,
			Confidence: 0.3,
			Reasoning:  "EMERGENCY FALLBACK: All routing methods failed",
		}
	}

	decision := r.rules.Route(query)
	decision.Reasoning = "FALLBACK: " + decision.Reasoning
	return decision
}
