package utils

import (
	"testing"

	"github.com/maestrohq/maestro/pkg/protocol"
)

func TestFormatResponseMetrics(t *testing.T) {
	tests := []struct {
		name    string
		metrics *protocol.ResponseMetrics
		want    string
	}{
		{
			name:    "nil metrics",
			metrics: nil,
			want:    "",
		},
		{
			name: "reported usage",
			metrics: &protocol.ResponseMetrics{
				ResponseTime: 2.0,
				InputTokens:  120,
				OutputTokens: 90,
			},
			want: "Time: 2 sec, Speed: 45 TPS, Input: 120 tokens, Output: 90 tokens",
		},
		{
			name: "sub-second time keeps one decimal",
			metrics: &protocol.ResponseMetrics{
				ResponseTime: 0.5,
				InputTokens:  10,
				OutputTokens: 4,
			},
			want: "Time: 0.5 sec, Speed: 8 TPS, Input: 10 tokens, Output: 4 tokens",
		},
		{
			name: "estimated fields marked",
			metrics: &protocol.ResponseMetrics{
				ResponseTime: 2.0,
				InputTokens:  120,
				OutputTokens: 90,
				Estimated:    []string{"input_tokens", "output_tokens"},
			},
			want: "Time: 2 sec, Speed: 45 TPS*, Input: 120 tokens*, Output: 90 tokens* (* = estimated)",
		},
		{
			name: "no output tokens",
			metrics: &protocol.ResponseMetrics{
				ResponseTime: 1.2,
				InputTokens:  50,
			},
			want: "Time: 1 sec, Speed: - TPS, Input: 50 tokens, Output: 0 tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResponseMetrics(tt.metrics); got != tt.want {
				t.Errorf("FormatResponseMetrics() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsEstimated(t *testing.T) {
	m := &protocol.ResponseMetrics{Estimated: []string{"input_tokens"}}
	if !m.IsEstimated("input_tokens") {
		t.Error("IsEstimated(input_tokens) = false")
	}
	if m.IsEstimated("output_tokens") {
		t.Error("IsEstimated(output_tokens) = true")
	}

	var nilMetrics *protocol.ResponseMetrics
	if nilMetrics.IsEstimated("input_tokens") {
		t.Error("nil metrics IsEstimated = true")
	}
}
