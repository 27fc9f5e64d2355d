// Package analyzer decides how much conversation history a turn needs:
// whether the question stands alone or depends on prior context, whether a
// topic has been established, and whether the user should be nudged toward
// a fresh conversation.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/maestrohq/maestro/pkg/llms"
	"github.com/maestrohq/maestro/pkg/logger"
	"github.com/maestrohq/maestro/pkg/observability"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// Analysis methods.
const (
	MethodLLM      = "llm"
	MethodPattern  = "pattern"
	MethodFallback = "fallback"
)

// Question types.
const (
	QuestionStandalone       = "standalone"
	QuestionContextDependent = "context_dependent"
)

// ContextAnalysis is the per-turn verdict.
type ContextAnalysis struct {
	NeedsFullContext bool    `json:"needs_full_context"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
	QuestionType     string  `json:"question_type"`
	ContextWindow    int     `json:"context_window"`
	AnalysisMethod   string  `json:"analysis_method"`
	SuggestNewChat   bool    `json:"suggest_new_chat"`
	NewChatReasoning string  `json:"new_chat_reasoning,omitempty"`
}

// TopicInfo reports whether the conversation has settled on a subject.
type TopicInfo struct {
	Established bool    `json:"topic_established"`
	MainTopic   string  `json:"main_topic,omitempty"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning,omitempty"`
}

// Analyzer combines an LLM classifier with deterministic regex fallbacks.
type Analyzer struct {
	decision *llms.DecisionClient

	standalonePatterns       []*regexp.Regexp
	contextDependentPatterns []*regexp.Regexp
	interruptionPatterns     []*regexp.Regexp

	conversationIndicators []string
}

func New(decision *llms.DecisionClient) *Analyzer {
	return &Analyzer{
		decision: decision,
		standalonePatterns: compileAll(
			`\b(weather|temperature|temp|forecast|rain|snow|humidity|wind)\b`,
			`\b(time|date|today|tomorrow|yesterday|now|current)\b`,
			`\b(calculate|compute|solve|math|equation|\+|\-|\*|\/|\=)\b`,
			`\b(what is|who is|define|explain|meaning|definition)\b`,
			`\b(how to|how do|tell me|show me|find|search)\b`,
			`\b(convert|translate|summarize|list|create|generate)\b`,
		),
		contextDependentPatterns: compileAll(
			`\b(that|this|it|they|them|earlier|before|previous|above|mentioned)\b`,
			`\b(also|additionally|furthermore|moreover|and|but|however|though)\b`,
			`\b(compared to|versus|vs|different from|similar to|like that)\b`,
			`\b(more about|details about|expand on|continue|follow up)\b`,
		),
		interruptionPatterns: compileAll(
			`\b(weather|temperature|time|date|calculate|math|convert|translate)\b`,
			`\b(what is|who is|define|explain|meaning)\b`,
			`\b(how to|how do|show me|tell me how)\b`,
		),
		conversationIndicators: []string{
			"that", "this", "it", "they", "also", "furthermore", "however",
			"what about", "tell me more", "expand on", "continue", "additionally",
		},
	}
}

func compileAll(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

// FallbackAnalysis is the safe verdict when analysis cannot run: keep the
// whole conversation so nothing breaks.
func FallbackAnalysis(historyLen int) *ContextAnalysis {
	return &ContextAnalysis{
		NeedsFullContext: true,
		Confidence:       0.5,
		Reasoning:        "Analysis failed - using full context for safety",
		QuestionType:     QuestionContextDependent,
		ContextWindow:    historyLen,
		AnalysisMethod:   MethodFallback,
	}
}

// Analyze classifies the current question against the conversation so far.
func (a *Analyzer) Analyze(ctx context.Context, question string, history []protocol.Message) *ContextAnalysis {
	tracer := observability.GetTracer("maestro.analyzer")
	ctx, span := tracer.Start(ctx, observability.SpanAnalysis)
	defer span.End()

	if ctx.Err() != nil {
		return FallbackAnalysis(len(history))
	}

	result := a.classify(ctx, question, history)
	a.analyzeNewChatSuggestion(question, history, result)
	return result
}

func (a *Analyzer) classify(ctx context.Context, question string, history []protocol.Message) *ContextAnalysis {
	if a.decision != nil && a.decision.Enabled() {
		if result, err := a.llmClassify(ctx, question, history); err == nil {
			return result
		} else {
			logger.GetLogger().Warn("LLM context analysis failed", "error", err)
		}
	}
	return a.patternClassify(question, history)
}

func (a *Analyzer) llmClassify(ctx context.Context, question string, history []protocol.Message) (*ContextAnalysis, error) {
	recent := tail(history, 10)

	prompt := fmt.Sprintf(`You are a context relevance analyzer. Analyze if the current user question requires the full chat conversation history to answer correctly, or if it can be answered independently.

CURRENT QUESTION: %q

RECENT CHAT CONTEXT (last few messages):
%s

Analyze this question and respond with a JSON object containing:
- "needs_full_context": true/false
- "confidence": 0.0-1.0 (how confident you are)
- "reasoning": brief explanation
- "question_type": "standalone" or "context_dependent"

STANDALONE questions (don't need chat history):
- Factual questions (weather, time, definitions)
- Calculations and conversions
- General information requests
- New topic introductions

CONTEXT-DEPENDENT questions (need chat history):
- References to "it", "that", "this", "they"
- Continuation of previous topics
- Comparative questions
- Follow-up questions

Respond with ONLY the JSON object, no other text.`, question, contextSummary(recent))

	raw, err := a.decision.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result ContextAnalysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("malformed analysis JSON: %w", err)
	}

	result.ContextWindow = len(history)
	result.AnalysisMethod = MethodLLM
	return &result, nil
}

// patternClassify is the deterministic fallback classifier. A tie defaults
// to context-dependent for safety.
func (a *Analyzer) patternClassify(question string, history []protocol.Message) *ContextAnalysis {
	questionLower := strings.ToLower(question)

	standaloneScore := 0
	for _, pattern := range a.standalonePatterns {
		if pattern.MatchString(questionLower) {
			standaloneScore++
		}
	}

	contextScore := 0
	for _, pattern := range a.contextDependentPatterns {
		if pattern.MatchString(questionLower) {
			contextScore++
		}
	}

	result := &ContextAnalysis{
		ContextWindow:  len(history),
		AnalysisMethod: MethodPattern,
	}

	switch {
	case standaloneScore > contextScore:
		result.NeedsFullContext = false
		result.QuestionType = QuestionStandalone
		result.Confidence = capConfidence(standaloneScore, contextScore)
		result.Reasoning = fmt.Sprintf("Standalone patterns detected: %d, context patterns: %d", standaloneScore, contextScore)
	case contextScore > standaloneScore:
		result.NeedsFullContext = true
		result.QuestionType = QuestionContextDependent
		result.Confidence = capConfidence(contextScore, standaloneScore)
		result.Reasoning = fmt.Sprintf("Context-dependent patterns detected: %d, standalone patterns: %d", contextScore, standaloneScore)
	default:
		result.NeedsFullContext = true
		result.QuestionType = QuestionContextDependent
		result.Confidence = 0.5
		result.Reasoning = "No clear patterns detected - using context for safety"
	}

	return result
}

func capConfidence(winner, loser int) float64 {
	confidence := float64(winner) / float64(winner+loser+1)
	if confidence > 0.8 {
		return 0.8
	}
	return confidence
}

// DetectTopicEstablishment decides whether the conversation has a sustained
// subject. Fewer than four messages can never establish a topic.
func (a *Analyzer) DetectTopicEstablishment(ctx context.Context, history []protocol.Message) TopicInfo {
	if len(history) < 4 {
		return TopicInfo{
			Reasoning: "Insufficient messages for topic establishment",
		}
	}

	recent := tail(history, 8)

	if a.decision != nil && a.decision.Enabled() {
		prompt := fmt.Sprintf(`Analyze this conversation to determine if a main conversational topic has been established.

CONVERSATION:
%s

A topic is "established" when there are multiple exchanges about the same subject showing sustained discussion, not just single Q&A pairs or rapid topic switching.

Respond with ONLY a JSON object:
{
    "topic_established": true/false,
    "main_topic": "brief description or null",
    "confidence": 0.0-1.0
}`, conversationText(recent))

		if raw, err := a.decision.GenerateJSON(ctx, prompt); err == nil {
			var info TopicInfo
			if json.Unmarshal([]byte(raw), &info) == nil {
				info.Reasoning = fmt.Sprintf("LLM analysis based on %d recent messages", len(recent))
				return info
			}
		} else {
			logger.GetLogger().Warn("topic establishment analysis failed", "error", err)
		}
	}

	info := TopicInfo{
		Established: len(history) > 6,
		Confidence:  0.5,
		Reasoning:   "Fallback heuristic - topic assumed established after 6+ messages",
	}
	if info.Established {
		info.MainTopic = "Extended conversation"
	}
	return info
}

// ConversationRelevance scores how related the question is to the ongoing
// topic, 0.0 (complete interruption) to 1.0 (direct continuation).
func (a *Analyzer) ConversationRelevance(ctx context.Context, question string, history []protocol.Message) float64 {
	if len(history) < 3 {
		return 1.0
	}

	topic := a.DetectTopicEstablishment(ctx, history)
	if !topic.Established {
		return 1.0
	}

	mainTopic := topic.MainTopic
	if mainTopic == "" {
		mainTopic = "the ongoing conversation"
	}

	if a.decision != nil && a.decision.Enabled() {
		contextText := joinContents(tail(history, 6))
		if len(contextText) > 400 {
			contextText = contextText[:400]
		}

		prompt := fmt.Sprintf(`Rate how relevant this new question is to the established conversation topic.

ESTABLISHED TOPIC: %s

RECENT CONVERSATION CONTEXT:
%s

NEW QUESTION: %s

Respond with ONLY a number between 0.0 and 1.0:
- 1.0 = Directly continues the established topic
- 0.5 = Somewhat related to the topic
- 0.0 = Complete topic change/interruption (like asking about weather during coding discussion)`, mainTopic, contextText, question)

		if raw, err := a.decision.GenerateJSON(ctx, prompt); err == nil {
			if score, parseErr := strconv.ParseFloat(strings.TrimSpace(raw), 64); parseErr == nil {
				return clamp01(score)
			}
		} else {
			logger.GetLogger().Warn("relevance calculation failed", "error", err)
		}
	}

	if a.patternClassify(question, history).QuestionType == QuestionStandalone {
		return 0.2
	}
	return 0.8
}

// SelectWindow picks the message slice handed to the provider. fullHistory
// includes the current question as the last element.
func (a *Analyzer) SelectWindow(ctx context.Context, analysis *ContextAnalysis, fullHistory []protocol.Message) []protocol.Message {
	if len(fullHistory) == 0 {
		return nil
	}

	current := fullHistory[len(fullHistory)-1]
	history := fullHistory[:len(fullHistory)-1]

	topic := a.DetectTopicEstablishment(ctx, history)
	relevance := a.ConversationRelevance(ctx, current.Content, history)

	log := logger.GetLogger()
	log.Debug("context window selection",
		"topic_established", topic.Established,
		"relevance", relevance,
		"confidence", analysis.Confidence)

	if !topic.Established {
		if analysis.NeedsFullContext {
			return fullHistory
		}
		return []protocol.Message{current}
	}

	if relevance < 0.3 {
		// Interruption of the established topic.
		return []protocol.Message{current}
	}

	switch {
	case analysis.Confidence > 0.8:
		return withCurrent(tail(history, 8), current)
	case analysis.Confidence > 0.6:
		return withCurrent(tail(history, 12), current)
	default:
		return fullHistory
	}
}

func withCurrent(history []protocol.Message, current protocol.Message) []protocol.Message {
	window := make([]protocol.Message, 0, len(history)+1)
	window = append(window, history...)
	return append(window, current)
}

func (a *Analyzer) analyzeNewChatSuggestion(question string, history []protocol.Message, result *ContextAnalysis) {
	if len(history) < 4 || result.NeedsFullContext {
		return
	}

	recent := tail(history, 6)

	ongoing := false
	var topicKeywords []string
	for _, msg := range recent {
		content := strings.ToLower(msg.Content)

		for _, indicator := range a.conversationIndicators {
			if strings.Contains(content, indicator) {
				ongoing = true
				break
			}
		}

		for _, word := range strings.Fields(content) {
			if len(word) > 4 && isAlpha(word) {
				topicKeywords = append(topicKeywords, word)
			}
		}
	}

	if ongoing && result.Confidence > 0.6 {
		currentWords := strings.Fields(strings.ToLower(question))
		if !overlaps(tail(topicKeywords, 10), currentWords) {
			result.SuggestNewChat = true
			result.NewChatReasoning = fmt.Sprintf(
				"This %s question seems unrelated to the ongoing conversation about %s",
				questionTypeOr(result, QuestionStandalone), topicSummary(topicKeywords))
			return
		}
	}

	questionLower := strings.ToLower(question)
	for _, pattern := range a.interruptionPatterns {
		if pattern.MatchString(questionLower) && len(history) > 8 && result.Confidence > 0.7 {
			result.SuggestNewChat = true
			result.NewChatReasoning = fmt.Sprintf(
				"This appears to be a %s question that doesn't relate to your current conversation",
				questionTypeOr(result, QuestionStandalone))
			return
		}
	}
}

func questionTypeOr(result *ContextAnalysis, fallback string) string {
	if result.QuestionType != "" {
		return result.QuestionType
	}
	return fallback
}

func topicSummary(keywords []string) string {
	if len(keywords) == 0 {
		return "previous topics"
	}
	return strings.Join(tail(keywords, 3), ", ")
}

func overlaps(keywords, words []string) bool {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	for _, k := range keywords {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// contextSummary renders the last few messages for the classifier prompt,
// truncating long contents.
func contextSummary(messages []protocol.Message) string {
	if len(messages) == 0 {
		return "No recent context"
	}

	var lines []string
	for _, msg := range tail(messages, 5) {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		if len(content) > 100 {
			content = content[:100] + "..."
		}
		lines = append(lines, strings.ToUpper(string(msg.Role))+": "+content)
	}

	if len(lines) == 0 {
		return "No meaningful context"
	}
	return strings.Join(lines, "\n")
}

func conversationText(messages []protocol.Message) string {
	var lines []string
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		lines = append(lines, strings.ToUpper(string(msg.Role))+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

func joinContents(messages []protocol.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, " ")
}
