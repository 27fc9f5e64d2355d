// Package router classifies each user utterance into a routing decision:
// which tool to call, whether to search first, or whether the model's own
// knowledge suffices. An LLM decision model is the primary path; a
// deterministic pattern scorer is the fallback.
package router

// RouteKind is the routing strategy for a turn.
type RouteKind string

const (
	// RouteToolDirect calls the primary tool immediately.
	RouteToolDirect RouteKind = "tool_direct"

	// RouteToolWithSearch calls the tool but verifies with a search pass.
	RouteToolWithSearch RouteKind = "tool_with_search"

	// RouteSearchOnly grounds the reply with a search passage, no tools.
	RouteSearchOnly RouteKind = "search_only"

	// RouteModelKnowledge answers from the model alone.
	RouteModelKnowledge RouteKind = "model_knowledge"

	// RouteCombined mixes multiple sources.
	RouteCombined RouteKind = "combined"
)

// ValidRouteKind reports whether k is one of the five route kinds.
func ValidRouteKind(k RouteKind) bool {
	switch k {
	case RouteToolDirect, RouteToolWithSearch, RouteSearchOnly, RouteModelKnowledge, RouteCombined:
		return true
	}
	return false
}

// RoutingDecision is produced once per turn and discarded after use.
type RoutingDecision struct {
	Kind            RouteKind `json:"routing_decision"`
	PrimaryTool     string    `json:"primary_tool,omitempty"`
	SearchProvider  string    `json:"search_provider,omitempty"`
	Confidence      float64   `json:"confidence"`
	Reasoning       string    `json:"reasoning"`
	FallbackOptions []string  `json:"fallback_options,omitempty"`
}

// NeedsSearch reports whether the decision routes through the search
// manager.
func (d *RoutingDecision) NeedsSearch() bool {
	return d.Kind == RouteSearchOnly || d.Kind == RouteToolWithSearch || d.Kind == RouteCombined
}

// NeedsTool reports whether the decision names a tool to call.
func (d *RoutingDecision) NeedsTool() bool {
	return d.PrimaryTool != "" &&
		(d.Kind == RouteToolDirect || d.Kind == RouteToolWithSearch || d.Kind == RouteCombined)
}
