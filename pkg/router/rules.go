package router

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Confidence thresholds for the rule decision table.
const (
	highConfidence   = 0.8
	mediumConfidence = 0.4
	lowConfidence    = 0.2
)

// Per-match score increments.
const (
	patternScore = 0.3
	keywordScore = 0.2
)

// toolProfile holds the pattern vocabulary for scoring one tool.
type toolProfile struct {
	patterns           []*regexp.Regexp
	keywords           []string
	locationIndicators []string
	boost              float64
}

// ToolScore is one tool's confidence assessment for a query.
type ToolScore struct {
	ToolName   string
	Confidence float64
	Reason     string
	CanHandle  bool
}

// RuleRouter is the deterministic fallback: regex patterns, keyword hits,
// and per-tool boosts produce a confidence per tool, combined with a
// needs-external-search detector through a threshold table.
type RuleRouter struct {
	profiles map[string]*toolProfile

	searchIndicators []*regexp.Regexp
	futureIndicators []*regexp.Regexp
}

func NewRuleRouter() *RuleRouter {
	return &RuleRouter{
		profiles: map[string]*toolProfile{
			"get_weather_forecast": {
				patterns: compileAll(
					`\bweather\b.*\bin\b`,
					`\bforecast\b.*\bfor\b`,
					`\btemperature\b.*\bin\b`,
					`\b(rain|snow|sun)\b.*\bin\b`,
					`\bhow.*hot.*in\b`,
					`\bclimate\b.*\bin\b`,
				),
				keywords:           []string{"weather", "forecast", "temperature", "rain", "snow", "climate"},
				locationIndicators: []string{"in", "at", "for"},
				boost:              0.3,
			},
			"get_pws_current_conditions": {
				patterns: compileAll(
					`\b(home|my|personal)\b.*\b(weather|temperature|station)\b`,
					`\bpws\b`,
					`\bweather station\b.*\b(my|home|personal)\b`,
					`\bcurrent.*\b(home|my)\b.*\b(weather|temp)\b`,
					`\bpws\b.*\b(current|conditions|temperature|weather)\b`,
				),
				keywords: []string{"home", "my", "personal", "pws", "station", "conditions"},
				boost:    0.5,
			},
			"get_home_weather": {
				patterns: compileAll(
					`\b(home|my|personal)\b.*\bweather\b`,
					`\bweather.*\b(home|house)\b`,
					`\b(my|our)\b.*\b(station|tempest)\b`,
				),
				keywords: []string{"home", "my", "personal", "house", "tempest"},
				boost:    0.4,
			},
			"brave_search": {
				patterns: compileAll(
					`\b(latest|recent|current|new)\b.*\b(news|events)\b`,
					`\bwhat.*happened\b`,
					`\bstock price\b`,
					`\bcompany.*\b(revenue|earnings)\b`,
				),
				keywords: []string{"latest", "recent", "current", "news", "stock", "company"},
				boost:    0.2,
			},
			"serper_search": {
				patterns: compileAll(
					`\bwhere.*\bopen\b`,
					`\bstore hours\b`,
					`\bphone number\b`,
					`\baddress.*\bof\b`,
				),
				keywords: []string{"hours", "address", "phone", "location", "store"},
				boost:    0.2,
			},
		},
		searchIndicators: compileAll(
			`\b(latest|recent|current|today|now|this week|this month)\b`,
			`\b(stock price|market|news|events)\b`,
			`\b(what.*happened|breaking|update)\b`,
			`\b(store hours|phone number|address)\b`,
			`\b(open|closed|available)\b.*\b(now|today)\b`,
		),
		futureIndicators: compileAll(
			`\b(when.*will|upcoming|scheduled|next)\b`,
			`\b(forecast|prediction|estimate)\b.*\b(next|future)\b`,
		),
	}
}

func compileAll(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

// AssessTool scores one tool against the query.
func (r *RuleRouter) AssessTool(query, toolName string) ToolScore {
	profile, ok := r.profiles[toolName]
	if !ok {
		return ToolScore{ToolName: toolName, Reason: "Tool not recognized"}
	}

	queryLower := strings.ToLower(query)

	var confidence float64
	var reasons []string

	patternMatches := 0
	for _, pattern := range profile.patterns {
		if pattern.MatchString(queryLower) {
			patternMatches++
			confidence += patternScore
			reasons = append(reasons, "Pattern match: "+pattern.String())
		}
	}

	keywordMatches := 0
	for _, keyword := range profile.keywords {
		if strings.Contains(queryLower, keyword) {
			keywordMatches++
			confidence += keywordScore
			reasons = append(reasons, "Keyword: "+keyword)
		}
	}

	for _, indicator := range profile.locationIndicators {
		if strings.Contains(queryLower, " "+indicator+" ") {
			confidence += profile.boost
			reasons = append(reasons, "Location indicator: "+indicator)
			break
		}
	}

	if profile.boost > 0 && (patternMatches > 0 || keywordMatches > 0) {
		confidence += profile.boost
	}

	if confidence > 1.0 {
		confidence = 1.0
	}

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}

	return ToolScore{
		ToolName:   toolName,
		Confidence: confidence,
		CanHandle:  confidence >= lowConfidence,
		Reason: fmt.Sprintf("Patterns: %d, Keywords: %d. %s",
			patternMatches, keywordMatches, strings.Join(reasons, "; ")),
	}
}

// AssessAll scores every known tool, best first. Ties break on name so the
// same query always yields the same ordering.
func (r *RuleRouter) AssessAll(query string) []ToolScore {
	scores := make([]ToolScore, 0, len(r.profiles))
	for name := range r.profiles {
		scores = append(scores, r.AssessTool(query, name))
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Confidence != scores[j].Confidence {
			return scores[i].Confidence > scores[j].Confidence
		}
		return scores[i].ToolName < scores[j].ToolName
	})
	return scores
}

// NeedsExternalSearch detects whether the query asks for current or
// external information the model cannot know.
func (r *RuleRouter) NeedsExternalSearch(query string) (bool, string) {
	queryLower := strings.ToLower(query)

	for _, pattern := range r.searchIndicators {
		if pattern.MatchString(queryLower) {
			return true, "Detected current information need: " + pattern.String()
		}
	}
	for _, pattern := range r.futureIndicators {
		if pattern.MatchString(queryLower) {
			return true, "Detected future information need: " + pattern.String()
		}
	}

	return false, "No external information indicators found"
}

// searchProviderFor picks the engine named in a rule decision: serper when
// its vocabulary dominated, brave otherwise.
func searchProviderFor(best *ToolScore) string {
	if best != nil && best.ToolName == "serper_search" && best.Confidence > 0 {
		return "serper"
	}
	return "brave"
}

// Route applies the threshold table to the scored tools and the search
// detector. Pure and deterministic: the same query always produces the
// same decision.
func (r *RuleRouter) Route(query string) RoutingDecision {
	scores := r.AssessAll(query)

	var best *ToolScore
	if len(scores) > 0 {
		best = &scores[0]
	}

	needsSearch, searchReason := r.NeedsExternalSearch(query)

	switch {
	case best != nil && best.Confidence >= highConfidence:
		decision := RoutingDecision{
			Kind:        RouteToolDirect,
			PrimaryTool: best.ToolName,
			Confidence:  best.Confidence,
			Reasoning:   fmt.Sprintf("High tool confidence (%.2f): %s", best.Confidence, best.Reason),
		}
		if needsSearch {
			decision.FallbackOptions = []string{"search"}
		}
		return decision

	case best != nil && best.Confidence >= mediumConfidence && needsSearch:
		return RoutingDecision{
			Kind:            RouteToolWithSearch,
			PrimaryTool:     best.ToolName,
			SearchProvider:  searchProviderFor(best),
			Confidence:      best.Confidence,
			Reasoning:       "Medium tool confidence + search needed: " + best.Reason,
			FallbackOptions: []string{"search_verification"},
		}

	case best != nil && best.Confidence >= mediumConfidence:
		return RoutingDecision{
			Kind:        RouteToolDirect,
			PrimaryTool: best.ToolName,
			Confidence:  best.Confidence,
			Reasoning:   "Medium tool confidence, no search needed: " + best.Reason,
		}

	case needsSearch:
		decision := RoutingDecision{
			Kind:           RouteSearchOnly,
			SearchProvider: searchProviderFor(best),
			Confidence:     0.7,
			Reasoning:      "Search needed for current info: " + searchReason,
		}
		if best != nil && best.CanHandle {
			decision.FallbackOptions = []string{best.ToolName}
		}
		return decision

	case best != nil && best.Confidence >= lowConfidence:
		return RoutingDecision{
			Kind:            RouteToolDirect,
			PrimaryTool:     best.ToolName,
			Confidence:      best.Confidence,
			Reasoning:       "Low-medium tool confidence: " + best.Reason,
			FallbackOptions: []string{"search"},
		}

	default:
		decision := RoutingDecision{
			Kind:       RouteModelKnowledge,
			Confidence: 0.5,
			Reasoning:  "No suitable tools found, using model knowledge",
		}
		if len(strings.Fields(query)) > 3 {
			decision.FallbackOptions = []string{"search"}
		}
		return decision
	}
}
