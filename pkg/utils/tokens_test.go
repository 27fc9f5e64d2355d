package utils

import "testing"

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"short word floors at one", "hi", 1},
		{"eight chars", "abcdefgh", 2},
		{"whitespace normalized", "a   b\n\n  c", 1},
		{"longer sentence", "The quick brown fox jumps over the lazy dog", 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokensPerSecond(t *testing.T) {
	tests := []struct {
		name    string
		tokens  int
		seconds float64
		want    float64
	}{
		{"normal rate", 90, 2, 45.0},
		{"rounded to one decimal", 100, 3, 33.3},
		{"zero time", 50, 0, 0},
		{"negative time", 50, -1, 0},
		{"zero tokens", 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokensPerSecond(tt.tokens, tt.seconds); got != tt.want {
				t.Errorf("TokensPerSecond(%d, %g) = %g, want %g", tt.tokens, tt.seconds, got, tt.want)
			}
		})
	}
}

func TestTokenCounterFallsBackToEstimate(t *testing.T) {
	var tc *TokenCounter
	if got := tc.Count("abcdefgh"); got != 2 {
		t.Errorf("nil counter Count = %d, want estimate 2", got)
	}
}

func TestNewTokenCounterUnknownModel(t *testing.T) {
	tc, err := NewTokenCounter("definitely-not-a-model")
	if err != nil {
		t.Fatalf("NewTokenCounter() error = %v, want cl100k_base fallback", err)
	}
	if tc.Count("hello world") == 0 {
		t.Error("Count returned 0 for non-empty text")
	}
}
