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

// OllamaProvider talks to a local Ollama daemon over /api/chat. Local
// inference is slow to warm up, so the adapter carries a longer timeout
// and pins the model in memory with keep_alive.
type OllamaProvider struct {
	config     *config.LLMProviderConfig
	httpClient *httpclient.Client
}

type OllamaRequest struct {
	Model     string          `json:"model"`
	Messages  []OllamaMessage `json:"messages"`
	Stream    bool            `json:"stream"`
	KeepAlive string          `json:"keep_alive,omitempty"`
	Options   *OllamaOptions  `json:"options,omitempty"`
}

type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OllamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type OllamaResponse struct {
	Message         OllamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error,omitempty"`
}

func NewOllamaProvider(cfg *config.LLMProviderConfig) *OllamaProvider {
	return &OllamaProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Timeout) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(time.Duration(cfg.RetryDelay)*time.Second),
		),
	}
}

func (p *OllamaProvider) GetModelName() string { return p.config.Model }

func (p *OllamaProvider) GetMaxTokens() int { return p.config.MaxTokens }

func (p *OllamaProvider) GetTemperature() float64 {
	if p.config.Temperature == nil {
		return 0.7
	}
	return *p.config.Temperature
}

func (p *OllamaProvider) Close() error { return nil }

func (p *OllamaProvider) Generate(ctx context.Context, req *GenerateRequest) *protocol.Response {
	if len(req.Messages) == 0 {
		return readyResponse()
	}

	start := time.Now()

	tracer := observability.GetTracer("maestro.llm")
	ctx, span := tracer.Start(ctx, observability.SpanLLMRequest,
		trace.WithAttributes(
			attribute.String(observability.AttrLLMModel, p.config.Model),
			attribute.String(observability.AttrLLMProvider, "ollama"),
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

	if response.Error != "" {
		apiErr := fmt.Errorf("ollama error: %s", response.Error)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, response.Error)
		p.recordCall(ctx, start, 0, 0, apiErr)
		return errorResponse(start, req)
	}

	text := response.Message.Content

	span.SetAttributes(
		attribute.Int(observability.AttrLLMTokensInput, response.PromptEvalCount),
		attribute.Int(observability.AttrLLMTokensOutput, response.EvalCount),
	)
	span.SetStatus(codes.Ok, "success")
	p.recordCall(ctx, start, response.PromptEvalCount, response.EvalCount, nil)

	return &protocol.Response{
		Text:    text,
		Metrics: reportedMetrics(start, req, text, response.PromptEvalCount, response.EvalCount),
	}
}

func (p *OllamaProvider) buildRequest(req *GenerateRequest) OllamaRequest {
	messages := grounded(req)
	converted := make([]OllamaMessage, 0, len(messages)+1)

	if req.SystemPrompt != "" {
		converted = append(converted, OllamaMessage{Role: "system", Content: req.SystemPrompt})
	}

	for _, msg := range messages {
		role := "user"
		if msg.Role == protocol.RoleAssistant {
			role = "assistant"
		}
		converted = append(converted, OllamaMessage{Role: role, Content: msg.Content})
	}

	request := OllamaRequest{
		Model:     p.config.Model,
		Messages:  converted,
		Stream:    false,
		KeepAlive: p.config.KeepAlive,
	}

	if p.config.Temperature != nil || p.config.MaxTokens > 0 {
		request.Options = &OllamaOptions{
			Temperature: p.config.Temperature,
			NumPredict:  p.config.MaxTokens,
		}
	}

	return request
}

func (p *OllamaProvider) makeRequest(ctx context.Context, request OllamaRequest) (*OllamaResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.Host+"/api/chat", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(requestBody)), nil
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
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

	var response OllamaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &response, nil
}

func (p *OllamaProvider) recordCall(ctx context.Context, start time.Time, inputTokens, outputTokens int, err error) {
	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordLLMCall(ctx, p.config.Model, time.Since(start), inputTokens, outputTokens, err)
	}
}
