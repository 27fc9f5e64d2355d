package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewMessageStampsTime(t *testing.T) {
	before := time.Now()
	msg := NewMessage(RoleUser, "hello")

	if msg.Role != RoleUser || msg.Content != "hello" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Timestamp.Before(before) || msg.Timestamp.After(time.Now()) {
		t.Errorf("timestamp = %v, want roughly now", msg.Timestamp)
	}
}

func TestIsEstimated(t *testing.T) {
	m := &ResponseMetrics{Estimated: []string{"input_tokens"}}

	if !m.IsEstimated("input_tokens") {
		t.Error("input_tokens should be estimated")
	}
	if m.IsEstimated("output_tokens") {
		t.Error("output_tokens should not be estimated")
	}

	var nilMetrics *ResponseMetrics
	if nilMetrics.IsEstimated("input_tokens") {
		t.Error("nil metrics estimate nothing")
	}
}

func TestMessageJSONOmitsEmptyExtras(t *testing.T) {
	data, err := json.Marshal(NewMessage(RoleAssistant, "reply"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["search_results"]; ok {
		t.Error("empty search_results should be omitted")
	}
	if _, ok := raw["metrics"]; ok {
		t.Error("nil metrics should be omitted")
	}
}
