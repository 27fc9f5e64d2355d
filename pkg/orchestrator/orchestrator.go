// Package orchestrator coordinates one conversational turn: route the
// utterance, search if routed, select the context window, call the
// provider, and persist both sides of the exchange in a single write.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/maestrohq/maestro/pkg/analyzer"
	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/llms"
	"github.com/maestrohq/maestro/pkg/logger"
	"github.com/maestrohq/maestro/pkg/observability"
	"github.com/maestrohq/maestro/pkg/profile"
	"github.com/maestrohq/maestro/pkg/protocol"
	"github.com/maestrohq/maestro/pkg/router"
	"github.com/maestrohq/maestro/pkg/search"
	"github.com/maestrohq/maestro/pkg/store"
	"github.com/maestrohq/maestro/pkg/utils"
)

// noSearchResultsNotice replaces a passage whose quality never reached the
// acceptance threshold.
const noSearchResultsNotice = "No relevant search results found."

// ConversationStore is the persistence surface the orchestrator needs.
type ConversationStore interface {
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	CreateConversation(ctx context.Context, userID, title, model string) (*store.Conversation, error)
	AppendTurn(ctx context.Context, id string, messages []protocol.Message) error
}

// Searcher runs grounding searches.
type Searcher interface {
	SearchWithFallback(ctx context.Context, query string) search.Result
}

// QueryOptimizer rewrites utterances into search phrases.
type QueryOptimizer interface {
	Optimize(ctx context.Context, query string) string
}

// TurnRequest is one user utterance against a conversation.
type TurnRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	Provider       string `json:"provider,omitempty"`
	SystemPrompt   string `json:"system_prompt,omitempty"`
	Message        string `json:"message"`
}

// SearchOutcome summarizes the search phase of a turn.
type SearchOutcome struct {
	Engine string  `json:"engine"`
	Score  float64 `json:"score"`
	Query  string  `json:"query"`
}

// TurnResult is everything a caller needs to render the turn.
type TurnResult struct {
	ConversationID string                    `json:"conversation_id"`
	Text           string                    `json:"text"`
	Metrics        *protocol.ResponseMetrics `json:"metrics,omitempty"`
	MetricsSummary string                    `json:"metrics_summary,omitempty"`
	Routing        router.RoutingDecision    `json:"routing"`
	Analysis       *analyzer.ContextAnalysis `json:"analysis,omitempty"`
	Search         *SearchOutcome            `json:"search,omitempty"`
}

// Orchestrator owns the per-turn pipeline. A per-conversation mutex keeps
// concurrent turns on one conversation sequential; a global semaphore
// bounds concurrent outbound model and search calls process-wide.
type Orchestrator struct {
	router    *router.Router
	searcher  Searcher
	optimizer QueryOptimizer
	analyzer  *analyzer.Analyzer
	providers *llms.ProviderRegistry
	profiles  *profile.Manager
	store     ConversationStore

	searchCfg *config.SearchConfig

	sem       *semaphore.Weighted
	convLocks sync.Map
}

func New(
	rt *router.Router,
	searcher Searcher,
	optimizer QueryOptimizer,
	an *analyzer.Analyzer,
	providers *llms.ProviderRegistry,
	profiles *profile.Manager,
	st ConversationStore,
	orchCfg *config.OrchestratorConfig,
	searchCfg *config.SearchConfig,
) *Orchestrator {
	return &Orchestrator{
		router:    rt,
		searcher:  searcher,
		optimizer: optimizer,
		analyzer:  an,
		providers: providers,
		profiles:  profiles,
		store:     st,
		searchCfg: searchCfg,
		sem:       semaphore.NewWeighted(orchCfg.MaxConcurrentCalls),
	}
}

func (o *Orchestrator) lockConversation(id string) *sync.Mutex {
	mu, _ := o.convLocks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ProcessTurn runs the full pipeline for one utterance. The conversation
// lock is held across the provider call and the persistence write, so a
// turn's messages land atomically and in order.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	start := time.Now()

	tracer := observability.GetTracer("maestro.orchestrator")
	ctx, span := tracer.Start(ctx, observability.SpanTurn,
		trace.WithAttributes(attribute.String(observability.AttrConversationID, req.ConversationID)),
	)
	defer span.End()

	result, err := o.processTurn(ctx, req)

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordTurn(ctx, time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
	}

	return result, err
}

func (o *Orchestrator) processTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	log := logger.GetLogger()

	conv, err := o.loadOrCreate(ctx, &req)
	if err != nil {
		return nil, err
	}

	mu := o.lockConversation(conv.ID)
	mu.Lock()
	defer mu.Unlock()

	// Profile snapshot and prompt enhancement happen before any outbound
	// call so every phase sees the same personalization.
	userProfile := o.profiles.Get(ctx, req.UserID)
	systemPrompt := userProfile.EnhanceSystemPrompt(req.SystemPrompt, time.Now)

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("turn cancelled: %w", err)
	}
	defer o.sem.Release(1)

	decision := o.router.Route(ctx, req.Message)
	log.Info("routing decision",
		"kind", decision.Kind,
		"tool", decision.PrimaryTool,
		"confidence", decision.Confidence)

	var passage string
	var outcome *SearchOutcome
	if decision.NeedsSearch() {
		passage, outcome = o.runSearch(ctx, req.Message)
	}

	userMsg := protocol.NewMessage(protocol.RoleUser, req.Message)
	fullHistory := append(append([]protocol.Message{}, conv.Messages...), userMsg)

	analysis := o.analyzer.Analyze(ctx, req.Message, conv.Messages)
	window := o.analyzer.SelectWindow(ctx, analysis, fullHistory)

	provider, err := o.resolveProvider(req.Provider)
	if err != nil {
		return nil, err
	}

	response := provider.Generate(ctx, &llms.GenerateRequest{
		Messages:      window,
		SystemPrompt:  systemPrompt,
		SearchPassage: passage,
	})

	assistantMsg := protocol.NewMessage(protocol.RoleAssistant, response.Text)
	assistantMsg.Metrics = response.Metrics
	if outcome != nil {
		assistantMsg.SearchResults = passage
	}

	// Both sides of the exchange persist in one write; a failure here
	// retains neither message.
	updated := append(append([]protocol.Message{}, conv.Messages...), userMsg, assistantMsg)
	if err := o.store.AppendTurn(ctx, conv.ID, updated); err != nil {
		return nil, fmt.Errorf("failed to persist turn: %w", err)
	}

	return &TurnResult{
		ConversationID: conv.ID,
		Text:           response.Text,
		Metrics:        response.Metrics,
		MetricsSummary: utils.FormatResponseMetrics(response.Metrics),
		Routing:        decision,
		Analysis:       analysis,
		Search:         outcome,
	}, nil
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, req *TurnRequest) (*store.Conversation, error) {
	if req.ConversationID == "" {
		conv, err := o.store.CreateConversation(ctx, req.UserID, "", req.Provider)
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		req.ConversationID = conv.ID
		return conv, nil
	}

	conv, err := o.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

// runSearch optimizes the query, searches, retries with the original query
// when the optimized one scored poorly, and degrades to a notice when
// nothing acceptable was found.
func (o *Orchestrator) runSearch(ctx context.Context, query string) (string, *SearchOutcome) {
	log := logger.GetLogger()

	optimized := o.optimizer.Optimize(ctx, query)
	if optimized != query {
		log.Info("query optimized", "original", query, "optimized", optimized)
	}

	best := o.searcher.SearchWithFallback(ctx, optimized)
	usedQuery := optimized

	if best.Score < o.searchCfg.RetryThreshold && optimized != query {
		log.Info("retrying search with original query", "score", best.Score)
		retry := o.searcher.SearchWithFallback(ctx, query)
		if retry.Score > best.Score {
			best = retry
			usedQuery = query
		}
	}

	outcome := &SearchOutcome{Engine: best.Engine, Score: best.Score, Query: usedQuery}

	if best.Score < o.searchCfg.AcceptThreshold {
		return noSearchResultsNotice, outcome
	}
	return best.Passage, outcome
}

func (o *Orchestrator) resolveProvider(name string) (llms.Provider, error) {
	if name != "" {
		provider, ok := o.providers.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		return provider, nil
	}

	names := o.providers.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	provider, _ := o.providers.Get(names[0])
	return provider, nil
}

// UsageStats exposes the router's LLM-vs-fallback counters.
func (o *Orchestrator) UsageStats() router.UsageStats {
	return o.router.Tracker().Stats()
}
