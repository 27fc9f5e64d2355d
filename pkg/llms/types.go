// Package llms provides the uniform provider abstraction: five adapters
// that translate a normalized request into provider-native calls, run the
// agentic tool loop where the provider supports function calling, and
// return a normalized response with metrics. Adapters never fail across
// the contract; errors become a plain-English response with estimated
// metrics.
package llms

import (
	"context"
	"strings"
	"time"

	"github.com/maestrohq/maestro/pkg/protocol"
	"github.com/maestrohq/maestro/pkg/tools"
	"github.com/maestrohq/maestro/pkg/utils"
)

// Canned replies shared by every adapter.
const (
	// ReadyReply answers an empty message list without a provider call.
	ReadyReply = "I'm ready to chat! What can I help you with?"

	// ErrorReply renders any transport/protocol failure.
	ErrorReply = "Sorry, I encountered an error while generating a response."

	// LoopExhaustedReply is returned when the agentic loop runs out of
	// iterations without producing a text turn.
	LoopExhaustedReply = "I couldn't complete the request with the available tools."

	// searchPassagePrefix annotates the grounding passage appended as the
	// final user turn.
	searchPassagePrefix = "Here are the search results to help you answer:\n\n"
)

// defaultAgenticLoopMax caps model<->tool iterations inside one call.
const defaultAgenticLoopMax = 3

// GenerateRequest is the normalized request handed to every adapter.
type GenerateRequest struct {
	Messages      []protocol.Message
	SystemPrompt  string
	SearchPassage string
}

// Provider is the uniform generation contract. Generate never returns an
// error: failures are rendered into the Response text with estimated
// metrics.
type Provider interface {
	Generate(ctx context.Context, req *GenerateRequest) *protocol.Response

	GetModelName() string

	GetMaxTokens() int

	GetTemperature() float64

	Close() error
}

// grounded appends the search passage as a final user turn when present.
func grounded(req *GenerateRequest) []protocol.Message {
	if req.SearchPassage == "" {
		return req.Messages
	}
	messages := make([]protocol.Message, len(req.Messages), len(req.Messages)+1)
	copy(messages, req.Messages)
	return append(messages, protocol.NewMessage(protocol.RoleUser, searchPassagePrefix+req.SearchPassage))
}

// inputText concatenates everything sent to the provider, for estimation.
func inputText(req *GenerateRequest) string {
	var b strings.Builder
	b.WriteString(req.SystemPrompt)
	for _, m := range grounded(req) {
		b.WriteString(" ")
		b.WriteString(m.Content)
	}
	return b.String()
}

// estimatedMetrics builds metrics from wall time and the chars/4 heuristic,
// flagging both token fields as estimates.
func estimatedMetrics(start time.Time, req *GenerateRequest, outputText string) *protocol.ResponseMetrics {
	return &protocol.ResponseMetrics{
		ResponseTime: time.Since(start).Seconds(),
		InputTokens:  utils.EstimateTokens(inputText(req)),
		OutputTokens: utils.EstimateTokens(outputText),
		Estimated:    []string{"input_tokens", "output_tokens"},
	}
}

// reportedMetrics builds metrics from provider-reported counts, estimating
// only the fields the provider left at zero.
func reportedMetrics(start time.Time, req *GenerateRequest, outputText string, inputTokens, outputTokens int) *protocol.ResponseMetrics {
	m := &protocol.ResponseMetrics{
		ResponseTime: time.Since(start).Seconds(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}
	if m.InputTokens == 0 {
		m.InputTokens = utils.EstimateTokens(inputText(req))
		m.Estimated = append(m.Estimated, "input_tokens")
	}
	if m.OutputTokens == 0 {
		m.OutputTokens = utils.EstimateTokens(outputText)
		m.Estimated = append(m.Estimated, "output_tokens")
	}
	return m
}

// errorResponse renders a failure as a normal response.
func errorResponse(start time.Time, req *GenerateRequest) *protocol.Response {
	return &protocol.Response{
		Text:    ErrorReply,
		Metrics: estimatedMetrics(start, req, ErrorReply),
	}
}

// readyResponse answers an empty history.
func readyResponse() *protocol.Response {
	return &protocol.Response{Text: ReadyReply, Metrics: nil}
}

// unknownToolNotice is appended into the loop history so the model can
// recover from hallucinated tool names.
func unknownToolNotice(name string) string {
	return "I tried to call unknown tool " + name
}

// descriptorsFor returns the registry's catalog, or nil without a registry.
func descriptorsFor(reg *tools.ToolRegistry) []tools.ToolInfo {
	if reg == nil {
		return nil
	}
	return reg.Descriptors()
}
