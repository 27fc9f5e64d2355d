// Package search runs web searches with quality assessment: engines are
// tried in rotation until a result scores well enough, and a query
// optimizer rewrites utterances into effective search phrases.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/llms"
	"github.com/maestrohq/maestro/pkg/logger"
	"github.com/maestrohq/maestro/pkg/observability"
	"github.com/maestrohq/maestro/pkg/tools"
)

// Result is the outcome of one search run.
type Result struct {
	Passage string
	Score   float64
	Engine  string
}

// Manager alternates between search engines, rating each result with the
// decision model, until a result meets the quality threshold or attempts
// run out.
type Manager struct {
	registry *tools.ToolRegistry
	decision *llms.DecisionClient
	config   *config.SearchConfig

	// sleep is swappable so tests don't wait out the attempt delay.
	sleep func(time.Duration)
}

func NewManager(registry *tools.ToolRegistry, decision *llms.DecisionClient, cfg *config.SearchConfig) *Manager {
	return &Manager{
		registry: registry,
		decision: decision,
		config:   cfg,
		sleep:    time.Sleep,
	}
}

// AssessQuality rates a search result 0-10 for the query. Empty results
// and explicit "no results" replies score 0; a rater failure scores a
// neutral 5 so a single flaky rating doesn't discard a usable passage.
func (m *Manager) AssessQuality(ctx context.Context, query, result string) float64 {
	if result == "" || strings.Contains(strings.ToLower(result), "no results") {
		return 0.0
	}

	prompt := fmt.Sprintf(`Rate the quality of this search result (0-10) for the query: %q

Consider:
1. Relevance to the query (0-4 points)
2. Completeness of information (0-3 points)
3. Source credibility (0-3 points)

Search Result:
%s

Respond ONLY with a number between 0 and 10.`, query, result)

	raw, err := m.decision.GenerateJSON(ctx, prompt)
	if err != nil {
		logger.GetLogger().Warn("quality assessment failed", "error", err)
		return 5.0
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		logger.GetLogger().Warn("quality assessment returned non-numeric score", "raw", raw)
		return 5.0
	}

	return score
}

// SearchWithFallback runs up to MaxAttempts searches, rotating engines,
// and returns the best passage seen. When every engine fails the result is
// empty with score zero.
func (m *Manager) SearchWithFallback(ctx context.Context, query string) Result {
	tracer := observability.GetTracer("maestro.search")
	ctx, span := tracer.Start(ctx, observability.SpanSearch)
	defer span.End()

	log := logger.GetLogger()

	var best Result

	engines := m.config.Engines
	delay := time.Duration(m.config.AttemptDelaySeconds) * time.Second

	for attempts := 0; attempts < m.config.MaxAttempts && best.Score < m.config.QualityThreshold; attempts++ {
		if ctx.Err() != nil {
			break
		}

		engine := engines[attempts%len(engines)]

		if attempts > 0 {
			m.sleep(delay)
		}

		log.Info("trying search engine", "engine", engine, "attempt", attempts+1)

		toolCtx, cancel := context.WithTimeout(ctx, time.Duration(m.config.ToolTimeoutSeconds)*time.Second)
		result, found := m.registry.ExecuteTool(toolCtx, engine, map[string]interface{}{
			"query":       query,
			"num_results": 3,
		})
		cancel()

		if !found {
			log.Error("search engine not found", "engine", engine)
			continue
		}

		ratingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		score := m.AssessQuality(ratingCtx, query, result)
		cancel()

		log.Info("search quality score", "engine", engine, "score", score)

		if metrics := observability.GetGlobalMetrics(); metrics != nil {
			metrics.RecordSearchAttempt(ctx, engine, score)
		}

		if score > best.Score {
			best = Result{Passage: result, Score: score, Engine: engine}
		}

		if score >= m.config.QualityThreshold {
			break
		}
	}

	span.SetAttributes(
		attribute.String(observability.AttrSearchEngine, best.Engine),
		attribute.Float64(observability.AttrSearchScore, best.Score),
	)

	return best
}
