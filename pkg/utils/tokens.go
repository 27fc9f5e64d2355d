// Package utils provides token accounting helpers shared by the provider
// adapters and the turn orchestrator.
package utils

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// EstimateTokens approximates the token count of text at roughly four
// characters per token after whitespace normalization. Non-empty text
// always counts as at least one token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	normalized := strings.Join(strings.Fields(text), " ")

	estimated := int(math.Round(float64(len(normalized)) / 4))
	if estimated < 1 {
		return 1
	}
	return estimated
}

// TokensPerSecond returns the generation rate rounded to one decimal,
// or 0 for invalid inputs.
func TokensPerSecond(outputTokens int, responseTime float64) float64 {
	if responseTime <= 0 || outputTokens <= 0 {
		return 0.0
	}
	return math.Round(float64(outputTokens)/responseTime*10) / 10
}

// TokenCounter counts tokens with the tiktoken encoding for a model,
// falling back to cl100k_base for models without a published encoding.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
	mu       sync.RWMutex
}

var (
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

func NewTokenCounter(model string) (*TokenCounter, error) {
	cacheMu.RLock()
	cached, exists := encodingCache[model]
	cacheMu.RUnlock()

	if exists {
		return &TokenCounter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding, model: model}, nil
}

// Count returns the token count for text.
func (tc *TokenCounter) Count(text string) int {
	if tc == nil || tc.encoding == nil {
		return EstimateTokens(text)
	}

	tc.mu.RLock()
	defer tc.mu.RUnlock()

	return len(tc.encoding.Encode(text, nil, nil))
}

// GetModel returns the model this counter was built for.
func (tc *TokenCounter) GetModel() string {
	return tc.model
}
