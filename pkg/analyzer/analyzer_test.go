package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/maestrohq/maestro/pkg/protocol"
)

func messages(contents ...string) []protocol.Message {
	msgs := make([]protocol.Message, len(contents))
	for i, content := range contents {
		role := protocol.RoleUser
		if i%2 == 1 {
			role = protocol.RoleAssistant
		}
		msgs[i] = protocol.NewMessage(role, content)
	}
	return msgs
}

func TestFallbackAnalysisKeepsFullContext(t *testing.T) {
	analysis := FallbackAnalysis(7)

	if !analysis.NeedsFullContext {
		t.Error("fallback must keep full context")
	}
	if analysis.ContextWindow != 7 {
		t.Errorf("ContextWindow = %d, want 7", analysis.ContextWindow)
	}
	if analysis.Confidence != 0.5 || analysis.AnalysisMethod != MethodFallback {
		t.Errorf("analysis = %+v", analysis)
	}
}

func TestAnalyzeCancelledContextFallsBack(t *testing.T) {
	a := New(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analysis := a.Analyze(ctx, "what is the weather today", messages("a", "b", "c"))
	if analysis.AnalysisMethod != MethodFallback {
		t.Errorf("AnalysisMethod = %q, want %q", analysis.AnalysisMethod, MethodFallback)
	}
	if analysis.ContextWindow != 3 {
		t.Errorf("ContextWindow = %d, want 3", analysis.ContextWindow)
	}
}

func TestPatternClassification(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	tests := []struct {
		name         string
		question     string
		wantType     string
		wantFull     bool
		wantConf     float64
		wantReasonIn string
	}{
		{
			name:         "standalone factual question",
			question:     "what is the weather today",
			wantType:     QuestionStandalone,
			wantFull:     false,
			wantConf:     0.75,
			wantReasonIn: "Standalone patterns detected",
		},
		{
			name:         "context dependent follow up",
			question:     "tell me more about that",
			wantType:     QuestionContextDependent,
			wantFull:     true,
			wantConf:     0.5,
			wantReasonIn: "Context-dependent patterns detected",
		},
		{
			name:         "tie defaults to context",
			question:     "hello",
			wantType:     QuestionContextDependent,
			wantFull:     true,
			wantConf:     0.5,
			wantReasonIn: "No clear patterns detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := a.Analyze(ctx, tt.question, nil)

			if analysis.QuestionType != tt.wantType {
				t.Errorf("QuestionType = %q, want %q", analysis.QuestionType, tt.wantType)
			}
			if analysis.NeedsFullContext != tt.wantFull {
				t.Errorf("NeedsFullContext = %v, want %v", analysis.NeedsFullContext, tt.wantFull)
			}
			if analysis.Confidence != tt.wantConf {
				t.Errorf("Confidence = %.2f, want %.2f", analysis.Confidence, tt.wantConf)
			}
			if !strings.Contains(analysis.Reasoning, tt.wantReasonIn) {
				t.Errorf("Reasoning = %q, want substring %q", analysis.Reasoning, tt.wantReasonIn)
			}
			if analysis.AnalysisMethod != MethodPattern {
				t.Errorf("AnalysisMethod = %q, want %q", analysis.AnalysisMethod, MethodPattern)
			}
		})
	}
}

func TestDetectTopicEstablishment(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	short := a.DetectTopicEstablishment(ctx, messages("a", "b", "c"))
	if short.Established {
		t.Error("three messages cannot establish a topic")
	}
	if short.Reasoning != "Insufficient messages for topic establishment" {
		t.Errorf("Reasoning = %q", short.Reasoning)
	}

	medium := a.DetectTopicEstablishment(ctx, messages("a", "b", "c", "d", "e"))
	if medium.Established {
		t.Error("five messages should not establish a topic via the heuristic")
	}

	long := a.DetectTopicEstablishment(ctx, messages("a", "b", "c", "d", "e", "f", "g", "h"))
	if !long.Established {
		t.Error("eight messages should establish a topic via the heuristic")
	}
	if long.MainTopic != "Extended conversation" {
		t.Errorf("MainTopic = %q", long.MainTopic)
	}
	if long.Confidence != 0.5 {
		t.Errorf("Confidence = %.2f, want 0.5", long.Confidence)
	}
}

func TestConversationRelevance(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	if got := a.ConversationRelevance(ctx, "anything", messages("a", "b")); got != 1.0 {
		t.Errorf("short history relevance = %g, want 1.0", got)
	}

	// Topic not established: full relevance regardless of question.
	if got := a.ConversationRelevance(ctx, "what is the weather today", messages("a", "b", "c", "d")); got != 1.0 {
		t.Errorf("unestablished topic relevance = %g, want 1.0", got)
	}

	long := messages("a", "b", "c", "d", "e", "f", "g", "h")

	if got := a.ConversationRelevance(ctx, "what is the weather today", long); got != 0.2 {
		t.Errorf("standalone interruption relevance = %g, want 0.2", got)
	}
	if got := a.ConversationRelevance(ctx, "tell me more about that", long); got != 0.8 {
		t.Errorf("follow-up relevance = %g, want 0.8", got)
	}
}

func TestSelectWindow(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	if got := a.SelectWindow(ctx, FallbackAnalysis(0), nil); got != nil {
		t.Errorf("empty history window = %v, want nil", got)
	}

	// Short conversation, standalone question: current question only.
	short := messages("a", "b", "c", "how are you")
	window := a.SelectWindow(ctx, &ContextAnalysis{Confidence: 0.9}, short)
	if len(window) != 1 || window[0].Content != "how are you" {
		t.Errorf("short conversation window = %d messages, want just the current one", len(window))
	}

	// Short conversation, context-dependent question: keep everything.
	followUp := messages("a", "b", "c", "tell me more about that")
	window = a.SelectWindow(ctx, &ContextAnalysis{Confidence: 0.9, NeedsFullContext: true}, followUp)
	if len(window) != len(followUp) {
		t.Errorf("follow-up window = %d messages, want full history %d", len(window), len(followUp))
	}

	long := messages("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "tell me more about that")

	highConf := a.SelectWindow(ctx, &ContextAnalysis{Confidence: 0.9}, long)
	if len(highConf) != 9 {
		t.Errorf("high confidence window = %d messages, want 9 (last 8 + current)", len(highConf))
	}
	if highConf[len(highConf)-1].Content != "tell me more about that" {
		t.Error("current question must be last in the window")
	}

	fullConf := a.SelectWindow(ctx, &ContextAnalysis{Confidence: 0.5}, long)
	if len(fullConf) != len(long) {
		t.Errorf("low confidence window = %d messages, want full history %d", len(fullConf), len(long))
	}

	// A standalone interruption of an established topic drops the history.
	interruption := append(append([]protocol.Message{}, long[:10]...), protocol.NewMessage(protocol.RoleUser, "what is the weather today"))
	window = a.SelectWindow(ctx, &ContextAnalysis{Confidence: 0.9}, interruption)
	if len(window) != 1 {
		t.Errorf("interruption window = %d messages, want 1", len(window))
	}
}

func TestNewChatSuggestion(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	history := messages(
		"how do python decorators work",
		"Decorators wrap functions to extend behavior",
		"tell me more about that decorator pattern",
		"They compose nicely with generators",
	)

	analysis := a.Analyze(ctx, "what is the weather today", history)
	if !analysis.SuggestNewChat {
		t.Fatal("unrelated standalone question should suggest a new chat")
	}
	if !strings.Contains(analysis.NewChatReasoning, "unrelated to the ongoing conversation") {
		t.Errorf("NewChatReasoning = %q", analysis.NewChatReasoning)
	}

	// Related follow-up keeps the conversation.
	related := a.Analyze(ctx, "tell me more about that", history)
	if related.SuggestNewChat {
		t.Error("follow-up question should not suggest a new chat")
	}
}
