// Package protocol defines the value types exchanged between the
// orchestration components: messages, tool calls, and response metrics.
package protocol

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation history. Assistant messages may
// carry the search passage that grounded them and the per-turn metrics.
type Message struct {
	Role          Role             `json:"role" bson:"role"`
	Content       string           `json:"content" bson:"content"`
	Timestamp     time.Time        `json:"timestamp" bson:"timestamp"`
	SearchResults string           `json:"search_results,omitempty" bson:"search_results,omitempty"`
	Metrics       *ResponseMetrics `json:"metrics,omitempty" bson:"metrics,omitempty"`
}

func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// ToolCall is a normalized function call requested by a model turn.
type ToolCall struct {
	ID   string                 `json:"id,omitempty"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// ResponseMetrics accounts for one provider call. Fields listed in
// Estimated were derived heuristically rather than reported by the provider.
type ResponseMetrics struct {
	ResponseTime float64  `json:"response_time" bson:"response_time"`
	InputTokens  int      `json:"input_tokens" bson:"input_tokens"`
	OutputTokens int      `json:"output_tokens" bson:"output_tokens"`
	Estimated    []string `json:"estimated,omitempty" bson:"estimated,omitempty"`
}

// IsEstimated reports whether the named field came from estimation.
func (m *ResponseMetrics) IsEstimated(field string) bool {
	if m == nil {
		return false
	}
	for _, f := range m.Estimated {
		if f == field {
			return true
		}
	}
	return false
}

// Response is the normalized result of a provider call. Metrics is nil only
// for canned replies that never reached a provider.
type Response struct {
	Text    string           `json:"text"`
	Metrics *ResponseMetrics `json:"metrics,omitempty"`
}
