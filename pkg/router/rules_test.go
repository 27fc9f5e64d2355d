package router

import (
	"reflect"
	"strings"
	"testing"
)

func TestRuleRouteWeatherQuery(t *testing.T) {
	r := NewRuleRouter()

	decision := r.Route("What's the weather in London?")

	if decision.Kind != RouteToolDirect {
		t.Errorf("Kind = %q, want %q", decision.Kind, RouteToolDirect)
	}
	if decision.PrimaryTool != "get_weather_forecast" {
		t.Errorf("PrimaryTool = %q, want get_weather_forecast", decision.PrimaryTool)
	}
	if decision.Confidence < highConfidence {
		t.Errorf("Confidence = %.2f, want >= %.2f", decision.Confidence, highConfidence)
	}
}

func TestRuleRoutePersonalStationQuery(t *testing.T) {
	r := NewRuleRouter()

	decision := r.Route("What are my PWS current conditions?")

	if decision.PrimaryTool != "get_pws_current_conditions" {
		t.Errorf("PrimaryTool = %q, want get_pws_current_conditions", decision.PrimaryTool)
	}
	if decision.Confidence < highConfidence {
		t.Errorf("Confidence = %.2f, want >= %.2f", decision.Confidence, highConfidence)
	}
}

func TestRuleRouteEmptyQueryUsesModelKnowledge(t *testing.T) {
	r := NewRuleRouter()

	decision := r.Route("")

	if decision.Kind != RouteModelKnowledge {
		t.Errorf("Kind = %q, want %q", decision.Kind, RouteModelKnowledge)
	}
	if decision.Confidence > 0.5 {
		t.Errorf("Confidence = %.2f, want <= 0.5", decision.Confidence)
	}
	if len(decision.FallbackOptions) != 0 {
		t.Errorf("FallbackOptions = %v, want none for an empty query", decision.FallbackOptions)
	}
}

func TestRuleRouteSearchOnlyCarriesEngine(t *testing.T) {
	r := NewRuleRouter()

	decision := r.Route("is the pharmacy open today?")

	if decision.Kind != RouteSearchOnly {
		t.Fatalf("Kind = %q, want %q", decision.Kind, RouteSearchOnly)
	}
	if decision.SearchProvider == "" {
		t.Error("search_only decision must name a search provider")
	}
	if decision.Confidence != 0.7 {
		t.Errorf("Confidence = %.2f, want 0.7", decision.Confidence)
	}
}

func TestRuleRouteToolWithSearchPrefersSerper(t *testing.T) {
	r := NewRuleRouter()

	decision := r.Route("phone number for the pharmacy")

	if decision.Kind != RouteToolWithSearch {
		t.Fatalf("Kind = %q, want %q", decision.Kind, RouteToolWithSearch)
	}
	if decision.PrimaryTool != "serper_search" {
		t.Errorf("PrimaryTool = %q, want serper_search", decision.PrimaryTool)
	}
	if decision.SearchProvider != "serper" {
		t.Errorf("SearchProvider = %q, want serper", decision.SearchProvider)
	}
}

func TestRuleRouteIsDeterministic(t *testing.T) {
	r := NewRuleRouter()

	queries := []string{
		"",
		"What's the weather in London?",
		"latest news on the election",
		"explain quantum entanglement",
		"store hours for the hardware store",
	}

	for _, query := range queries {
		first := r.Route(query)
		second := r.Route(query)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Route(%q) not deterministic: %+v vs %+v", query, first, second)
		}
	}
}

func TestAssessToolUnknownTool(t *testing.T) {
	r := NewRuleRouter()

	score := r.AssessTool("anything", "launch_rocket")
	if score.Confidence != 0 || score.CanHandle {
		t.Errorf("unknown tool scored %+v, want zero confidence", score)
	}
}

func TestAssessToolConfidenceCapped(t *testing.T) {
	r := NewRuleRouter()

	score := r.AssessTool("what is the weather forecast temperature and rain in London", "get_weather_forecast")
	if score.Confidence > 1.0 {
		t.Errorf("Confidence = %.2f, want <= 1.0", score.Confidence)
	}
	if !strings.HasPrefix(score.Reason, "Patterns: ") {
		t.Errorf("Reason = %q, want pattern/keyword summary prefix", score.Reason)
	}
}

func TestAssessAllOrderedBestFirst(t *testing.T) {
	r := NewRuleRouter()

	scores := r.AssessAll("weather in Paris")
	if len(scores) == 0 {
		t.Fatal("AssessAll returned no scores")
	}
	for i := 1; i < len(scores); i++ {
		if scores[i].Confidence > scores[i-1].Confidence {
			t.Errorf("scores out of order at %d: %.2f > %.2f", i, scores[i].Confidence, scores[i-1].Confidence)
		}
	}
	if scores[0].ToolName != "get_weather_forecast" {
		t.Errorf("best tool = %q, want get_weather_forecast", scores[0].ToolName)
	}
}

func TestNeedsExternalSearch(t *testing.T) {
	r := NewRuleRouter()

	tests := []struct {
		query string
		want  bool
	}{
		{"latest news on the market", true},
		{"when will the next eclipse happen", true},
		{"explain photosynthesis", false},
		{"", false},
	}

	for _, tt := range tests {
		got, _ := r.NeedsExternalSearch(tt.query)
		if got != tt.want {
			t.Errorf("NeedsExternalSearch(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
