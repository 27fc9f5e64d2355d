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

// GeminiProvider speaks the Gemini generateContent API, including its
// function-calling protocol where tool results travel back as
// functionResponse parts.
type GeminiProvider struct {
	config     *config.LLMProviderConfig
	registry   *tools.ToolRegistry
	httpClient *httpclient.Client
	loopMax    int
}

type GeminiRequest struct {
	Contents          []GeminiContent         `json:"contents"`
	SystemInstruction *GeminiContent          `json:"systemInstruction,omitempty"`
	Tools             []GeminiTool            `json:"tools,omitempty"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *GeminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *GeminiFunctionResponse `json:"functionResponse,omitempty"`
}

type GeminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type GeminiFunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

type GeminiTool struct {
	FunctionDeclarations []GeminiFunctionDeclaration `json:"function_declarations"`
}

type GeminiFunctionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type GeminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

type GeminiResponse struct {
	Candidates    []GeminiCandidate    `json:"candidates"`
	UsageMetadata *GeminiUsageMetadata `json:"usageMetadata,omitempty"`
	Error         *GeminiError         `json:"error,omitempty"`
}

type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type GeminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func NewGeminiProvider(cfg *config.LLMProviderConfig, registry *tools.ToolRegistry) *GeminiProvider {
	return &GeminiProvider{
		config:   cfg,
		registry: registry,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Timeout) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(time.Duration(cfg.RetryDelay)*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseGeminiHeaders),
		),
		loopMax: defaultAgenticLoopMax,
	}
}

func (p *GeminiProvider) GetModelName() string { return p.config.Model }

func (p *GeminiProvider) GetMaxTokens() int { return p.config.MaxTokens }

func (p *GeminiProvider) GetTemperature() float64 {
	if p.config.Temperature == nil {
		return 0.7
	}
	return *p.config.Temperature
}

func (p *GeminiProvider) Close() error { return nil }

func (p *GeminiProvider) Generate(ctx context.Context, req *GenerateRequest) *protocol.Response {
	if len(req.Messages) == 0 {
		return readyResponse()
	}

	start := time.Now()

	tracer := observability.GetTracer("maestro.llm")
	ctx, span := tracer.Start(ctx, observability.SpanLLMRequest,
		trace.WithAttributes(
			attribute.String(observability.AttrLLMModel, p.config.Model),
			attribute.String(observability.AttrLLMProvider, "gemini"),
		),
	)
	defer span.End()

	contents := p.buildContents(req)

	var promptTokens, completionTokens int

	for iteration := 0; iteration < p.loopMax; iteration++ {
		response, err := p.makeRequest(ctx, p.buildRequest(req, contents))
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

		if len(response.Candidates) == 0 {
			noCandidateErr := fmt.Errorf("no candidates returned")
			span.RecordError(noCandidateErr)
			span.SetStatus(codes.Error, "no candidates")
			p.recordCall(ctx, start, 0, 0, noCandidateErr)
			return errorResponse(start, req)
		}

		if response.UsageMetadata != nil {
			promptTokens += response.UsageMetadata.PromptTokenCount
			completionTokens += response.UsageMetadata.CandidatesTokenCount
		}

		candidate := response.Candidates[0]
		calls := functionCalls(candidate.Content)

		if len(calls) > 0 {
			contents = append(contents, GeminiContent{Role: "model", Parts: candidate.Content.Parts})
			contents = append(contents, GeminiContent{
				Role:  "user",
				Parts: p.executeFunctionCalls(ctx, calls),
			})
			continue
		}

		text := textOf(candidate.Content)

		span.SetAttributes(
			attribute.Int(observability.AttrLLMTokensInput, promptTokens),
			attribute.Int(observability.AttrLLMTokensOutput, completionTokens),
		)
		span.SetStatus(codes.Ok, "success")
		p.recordCall(ctx, start, promptTokens, completionTokens, nil)

		return &protocol.Response{
			Text:    text,
			Metrics: reportedMetrics(start, req, text, promptTokens, completionTokens),
		}
	}

	span.SetStatus(codes.Ok, "loop exhausted")
	p.recordCall(ctx, start, promptTokens, completionTokens, nil)

	return &protocol.Response{
		Text:    LoopExhaustedReply,
		Metrics: reportedMetrics(start, req, LoopExhaustedReply, promptTokens, completionTokens),
	}
}

func functionCalls(content GeminiContent) []*GeminiFunctionCall {
	var calls []*GeminiFunctionCall
	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func textOf(content GeminiContent) string {
	var text string
	for _, part := range content.Parts {
		text += part.Text
	}
	return text
}

// executeFunctionCalls runs each call and wraps the output in the
// functionResponse envelope Gemini expects: response.name echoes the tool
// name and response.content carries the string output.
func (p *GeminiProvider) executeFunctionCalls(ctx context.Context, calls []*GeminiFunctionCall) []GeminiPart {
	parts := make([]GeminiPart, 0, len(calls))
	for _, call := range calls {
		args := call.Args
		if args == nil {
			args = map[string]interface{}{}
		}

		output, found := "", false
		if p.registry != nil {
			output, found = p.registry.ExecuteTool(ctx, call.Name, args)
		}
		if !found {
			output = unknownToolNotice(call.Name)
		}

		parts = append(parts, GeminiPart{
			FunctionResponse: &GeminiFunctionResponse{
				Name: call.Name,
				Response: map[string]interface{}{
					"name":    call.Name,
					"content": output,
				},
			},
		})
	}
	return parts
}

func (p *GeminiProvider) buildContents(req *GenerateRequest) []GeminiContent {
	messages := grounded(req)
	contents := make([]GeminiContent, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == protocol.RoleAssistant {
			role = "model"
		}
		contents = append(contents, GeminiContent{
			Role:  role,
			Parts: []GeminiPart{{Text: msg.Content}},
		})
	}
	return contents
}

func (p *GeminiProvider) buildRequest(req *GenerateRequest, contents []GeminiContent) GeminiRequest {
	request := GeminiRequest{
		Contents: contents,
		GenerationConfig: &GeminiGenerationConfig{
			Temperature:     p.config.Temperature,
			MaxOutputTokens: p.config.MaxTokens,
		},
	}

	if req.SystemPrompt != "" {
		request.SystemInstruction = &GeminiContent{
			Parts: []GeminiPart{{Text: req.SystemPrompt}},
		}
	}

	if descriptors := descriptorsFor(p.registry); len(descriptors) > 0 {
		declarations := make([]GeminiFunctionDeclaration, len(descriptors))
		for i, d := range descriptors {
			declarations[i] = GeminiFunctionDeclaration{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			}
		}
		request.Tools = []GeminiTool{{FunctionDeclarations: declarations}}
	}

	return request
}

func (p *GeminiProvider) makeRequest(ctx context.Context, request GeminiRequest) (*GeminiResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.config.Host, p.config.Model, p.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(requestBody))
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
			var errResp GeminiResponse
			if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
				return nil, fmt.Errorf("API request failed with status %d: %s (status: %s)",
					resp.StatusCode, errResp.Error.Message, errResp.Error.Status)
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

	var response GeminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &response, nil
}

func (p *GeminiProvider) recordCall(ctx context.Context, start time.Time, inputTokens, outputTokens int, err error) {
	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordLLMCall(ctx, p.config.Model, time.Since(start), inputTokens, outputTokens, err)
	}
}
