package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/httpclient"
)

// DecisionClient is the small, fast, JSON-only model shared by the router,
// the context analyzer, the search quality rater, and the query optimizer.
// It asks Gemini for application/json responses so callers can unmarshal
// straight into their decision structs.
type DecisionClient struct {
	config     *config.DecisionConfig
	httpClient *httpclient.Client
}

func NewDecisionClient(cfg *config.DecisionConfig) *DecisionClient {
	return &DecisionClient{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Timeout) * time.Second,
			}),
			httpclient.WithMaxRetries(1),
			httpclient.WithHeaderParser(httpclient.ParseGeminiHeaders),
		),
	}
}

// SetHost overrides the API endpoint, used by tests.
func (c *DecisionClient) SetHost(host string) {
	c.config.Host = host
}

func (c *DecisionClient) Enabled() bool {
	return c.config.Enabled()
}

// GenerateJSON sends a prompt and returns the raw JSON text of the reply.
// Markdown code fences are stripped when the model wraps its output anyway.
func (c *DecisionClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("decision model not configured: missing API key")
	}

	request := GeminiRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: prompt}}},
		},
		GenerationConfig: &GeminiGenerationConfig{
			Temperature:      c.config.Temperature,
			MaxOutputTokens:  c.config.MaxTokens,
			ResponseMIMEType: "application/json",
		},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.config.Host, c.config.Model, c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(requestBody)), nil
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return "", fmt.Errorf("decision request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}

	if err != nil {
		return "", fmt.Errorf("decision request failed: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("decision request failed: no response received")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var response GeminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("decision API error: %s", response.Error.Message)
	}

	if len(response.Candidates) == 0 {
		return "", fmt.Errorf("decision model returned no candidates")
	}

	text := strings.TrimSpace(textOf(response.Candidates[0].Content))
	if text == "" {
		return "", fmt.Errorf("decision model returned empty content")
	}

	return stripCodeFences(text), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
