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
	"github.com/maestrohq/maestro/pkg/tools"
)

// OpenAIProvider speaks the OpenAI chat-completions wire shape. The xAI
// adapter reuses it with a different host and provider tag.
type OpenAIProvider struct {
	config      *config.LLMProviderConfig
	registry    *tools.ToolRegistry
	httpClient  *httpclient.Client
	loopMax     int
	providerTag string
}

type OpenAIRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	Tools       []OpenAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
}

type OpenAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type OpenAIResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	Error   *Error   `json:"error,omitempty"`
}

type Choice struct {
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type OpenAITool struct {
	Type     string             `json:"type"`
	Function OpenAIToolFunction `json:"function"`
}

type OpenAIToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type OpenAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function OpenAIFunctionCall `json:"function"`
}

type OpenAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func NewOpenAIProvider(cfg *config.LLMProviderConfig, registry *tools.ToolRegistry) *OpenAIProvider {
	return newOpenAIShapeProvider(cfg, registry, "openai")
}

func newOpenAIShapeProvider(cfg *config.LLMProviderConfig, registry *tools.ToolRegistry, tag string) *OpenAIProvider {
	httpClient := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithBaseDelay(time.Duration(cfg.RetryDelay)*time.Second),
		httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
	)

	return &OpenAIProvider{
		config:      cfg,
		registry:    registry,
		httpClient:  httpClient,
		loopMax:     defaultAgenticLoopMax,
		providerTag: tag,
	}
}

func (p *OpenAIProvider) GetModelName() string { return p.config.Model }

func (p *OpenAIProvider) GetMaxTokens() int { return p.config.MaxTokens }

func (p *OpenAIProvider) GetTemperature() float64 {
	if p.config.Temperature == nil {
		return 0.7
	}
	return *p.config.Temperature
}

func (p *OpenAIProvider) Close() error { return nil }

func (p *OpenAIProvider) Generate(ctx context.Context, req *GenerateRequest) *protocol.Response {
	if len(req.Messages) == 0 {
		return readyResponse()
	}

	start := time.Now()

	tracer := observability.GetTracer("maestro.llm")
	ctx, span := tracer.Start(ctx, observability.SpanLLMRequest,
		trace.WithAttributes(
			attribute.String(observability.AttrLLMModel, p.config.Model),
			attribute.String(observability.AttrLLMProvider, p.providerTag),
		),
	)
	defer span.End()

	history := p.buildHistory(req)

	var promptTokens, completionTokens int

	for iteration := 0; iteration < p.loopMax; iteration++ {
		response, err := p.makeRequest(ctx, p.buildRequest(history))
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

		if len(response.Choices) == 0 {
			noChoiceErr := fmt.Errorf("no response choices returned")
			span.RecordError(noChoiceErr)
			span.SetStatus(codes.Error, "no choices")
			p.recordCall(ctx, start, 0, 0, noChoiceErr)
			return errorResponse(start, req)
		}

		promptTokens += response.Usage.PromptTokens
		completionTokens += response.Usage.CompletionTokens

		choice := response.Choices[0]

		if len(choice.Message.ToolCalls) > 0 {
			history = append(history, choice.Message)
			history = append(history, p.executeToolCalls(ctx, choice.Message.ToolCalls)...)
			continue
		}

		span.SetAttributes(
			attribute.Int(observability.AttrLLMTokensInput, promptTokens),
			attribute.Int(observability.AttrLLMTokensOutput, completionTokens),
		)
		span.SetStatus(codes.Ok, "success")
		p.recordCall(ctx, start, promptTokens, completionTokens, nil)

		return &protocol.Response{
			Text:    choice.Message.Content,
			Metrics: reportedMetrics(start, req, choice.Message.Content, promptTokens, completionTokens),
		}
	}

	span.SetStatus(codes.Ok, "loop exhausted")
	p.recordCall(ctx, start, promptTokens, completionTokens, nil)

	return &protocol.Response{
		Text:    LoopExhaustedReply,
		Metrics: reportedMetrics(start, req, LoopExhaustedReply, promptTokens, completionTokens),
	}
}

// executeToolCalls resolves and runs each requested tool, producing the
// tool-role replies the next iteration needs. An unknown tool becomes a
// notice in the reply so the model can recover.
func (p *OpenAIProvider) executeToolCalls(ctx context.Context, calls []OpenAIToolCall) []OpenAIMessage {
	replies := make([]OpenAIMessage, 0, len(calls))
	for _, call := range calls {
		var args map[string]interface{}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			args = map[string]interface{}{}
		}

		output, found := "", false
		if p.registry != nil {
			output, found = p.registry.ExecuteTool(ctx, call.Function.Name, args)
		}
		if !found {
			output = unknownToolNotice(call.Function.Name)
		}

		replies = append(replies, OpenAIMessage{
			Role:       "tool",
			Content:    output,
			ToolCallID: call.ID,
		})
	}
	return replies
}

func (p *OpenAIProvider) buildHistory(req *GenerateRequest) []OpenAIMessage {
	messages := grounded(req)
	history := make([]OpenAIMessage, 0, len(messages)+1)

	if req.SystemPrompt != "" {
		history = append(history, OpenAIMessage{Role: "system", Content: req.SystemPrompt})
	}

	for _, msg := range messages {
		role := "user"
		switch msg.Role {
		case protocol.RoleAssistant:
			role = "assistant"
		case protocol.RoleTool:
			role = "tool"
		}
		history = append(history, OpenAIMessage{Role: role, Content: msg.Content})
	}

	return history
}

func (p *OpenAIProvider) buildRequest(history []OpenAIMessage) OpenAIRequest {
	request := OpenAIRequest{
		Model:       p.config.Model,
		Messages:    history,
		Temperature: p.GetTemperature(),
	}

	if p.config.MaxTokens > 0 {
		maxTokens := p.config.MaxTokens
		request.MaxTokens = &maxTokens
	}

	if descriptors := descriptorsFor(p.registry); len(descriptors) > 0 {
		request.Tools = convertToOpenAITools(descriptors)
		request.ToolChoice = "auto"
	}

	return request
}

func convertToOpenAITools(descriptors []tools.ToolInfo) []OpenAITool {
	result := make([]OpenAITool, len(descriptors))
	for i, d := range descriptors {
		result[i] = OpenAITool{
			Type: "function",
			Function: OpenAIToolFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		}
	}
	return result
}

// parseErrorResponse extracts error details from non-2xx bodies.
func parseErrorResponse(body []byte) *Error {
	if len(body) == 0 {
		return nil
	}
	var errorResp struct {
		Error Error `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
		return &errorResp.Error
	}
	return nil
}

func (p *OpenAIProvider) makeRequest(ctx context.Context, request OpenAIRequest) (*OpenAIResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.Host+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(requestBody)), nil
	}

	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, readErr := io.ReadAll(resp.Body)
			errorBody := string(body)
			if readErr != nil {
				errorBody = fmt.Sprintf("(failed to read error body: %v)", readErr)
			}
			if apiErr := parseErrorResponse(body); apiErr != nil {
				return nil, fmt.Errorf("API request failed with status %d: %s (type: %s, code: %s)",
					resp.StatusCode, apiErr.Message, apiErr.Type, apiErr.Code)
			}
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, errorBody)
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

	var response OpenAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &response, nil
}

func (p *OpenAIProvider) recordCall(ctx context.Context, start time.Time, inputTokens, outputTokens int, err error) {
	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordLLMCall(ctx, p.config.Model, time.Since(start), inputTokens, outputTokens, err)
	}
}
