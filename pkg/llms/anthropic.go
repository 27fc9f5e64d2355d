package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/httpclient"
	"github.com/maestrohq/maestro/pkg/observability"
	"github.com/maestrohq/maestro/pkg/protocol"
)

const anthropicAPIVersion = "2023-06-01"

// AnthropicProvider speaks the Anthropic messages API. The system prompt
// travels as a top-level field, not a message, and max_tokens is
// mandatory. Tool calling is intentionally not wired for this adapter;
// grounding arrives through the search passage instead.
type AnthropicProvider struct {
	config     *config.LLMProviderConfig
	httpClient *httpclient.Client
}

type AnthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []AnthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AnthropicResponse struct {
	Content []AnthropicContent `json:"content"`
	Usage   AnthropicUsage     `json:"usage"`
	Error   *AnthropicError    `json:"error,omitempty"`
}

type AnthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type AnthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewAnthropicProvider(cfg *config.LLMProviderConfig) *AnthropicProvider {
	return &AnthropicProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Timeout) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(time.Duration(cfg.RetryDelay)*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseAnthropicHeaders),
		),
	}
}

func (p *AnthropicProvider) GetModelName() string { return p.config.Model }

func (p *AnthropicProvider) GetMaxTokens() int { return p.config.MaxTokens }

func (p *AnthropicProvider) GetTemperature() float64 {
	if p.config.Temperature == nil {
		return 0.7
	}
	return *p.config.Temperature
}

func (p *AnthropicProvider) Close() error { return nil }

func (p *AnthropicProvider) Generate(ctx context.Context, req *GenerateRequest) *protocol.Response {
	if len(req.Messages) == 0 {
		return readyResponse()
	}

	start := time.Now()

	tracer := observability.GetTracer("maestro.llm")
	ctx, span := tracer.Start(ctx, observability.SpanLLMRequest,
		trace.WithAttributes(
			attribute.String(observability.AttrLLMModel, p.config.Model),
			attribute.String(observability.AttrLLMProvider, "anthropic"),
		),
	)
	defer span.End()

	response, err := p.makeRequest(ctx, p.buildRequest(req))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.recordCall(ctx, start, 0, 0, err)
		return errorResponse(start, req)
	}

	if response.Error != nil {
		apiErr := fmt.Errorf("API error: %s", response.Error.Message)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, response.Error.Message)
		p.recordCall(ctx, start, 0, 0, apiErr)
		return errorResponse(start, req)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		emptyErr := fmt.Errorf("no text content in response")
		span.RecordError(emptyErr)
		span.SetStatus(codes.Error, "empty content")
		p.recordCall(ctx, start, 0, 0, emptyErr)
		return errorResponse(start, req)
	}

	span.SetAttributes(
		attribute.Int(observability.AttrLLMTokensInput, response.Usage.InputTokens),
		attribute.Int(observability.AttrLLMTokensOutput, response.Usage.OutputTokens),
	)
	span.SetStatus(codes.Ok, "success")
	p.recordCall(ctx, start, response.Usage.InputTokens, response.Usage.OutputTokens, nil)

	return &protocol.Response{
		Text:    text,
		Metrics: reportedMetrics(start, req, text, response.Usage.InputTokens, response.Usage.OutputTokens),
	}
}

func (p *AnthropicProvider) buildRequest(req *GenerateRequest) AnthropicRequest {
	messages := grounded(req)
	converted := make([]AnthropicMessage, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == protocol.RoleAssistant {
			role = "assistant"
		}
		converted = append(converted, AnthropicMessage{Role: role, Content: msg.Content})
	}

	maxTokens := p.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return AnthropicRequest{
		Model:       p.config.Model,
		Messages:    converted,
		System:      req.SystemPrompt,
		MaxTokens:   maxTokens,
		Temperature: p.GetTemperature(),
	}
}

func (p *AnthropicProvider) makeRequest(ctx context.Context, request AnthropicRequest) (*AnthropicResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.Host+"/v1/messages", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(requestBody)), nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var errResp AnthropicResponse
			if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
				return nil, fmt.Errorf("API request failed with status %d: %s (type: %s)",
					resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
			}
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}

	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp == nil {
		return nil, fmt.Errorf("HTTP request failed: no response received")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response AnthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &response, nil
}

func (p *AnthropicProvider) recordCall(ctx context.Context, start time.Time, inputTokens, outputTokens int, err error) {
	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordLLMCall(ctx, p.config.Model, time.Since(start), inputTokens, outputTokens, err)
	}
}
