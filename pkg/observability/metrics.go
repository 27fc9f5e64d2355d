package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type MetricsConfig struct {
	Enabled bool
}

// InitMetrics creates the meter set exported through the Prometheus reader.
// When disabled, the zero-value PrometheusMetrics records nothing.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("maestro")

	turnDuration, err := meter.Float64Histogram(
		"maestro_turn_duration_seconds",
		metric.WithDescription("Full turn duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn duration histogram: %w", err)
	}

	turnTotal, err := meter.Int64Counter(
		"maestro_turns_total",
		metric.WithDescription("Total turns processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turns counter: %w", err)
	}

	turnErrors, err := meter.Int64Counter(
		"maestro_turn_errors_total",
		metric.WithDescription("Total turns that ended in error"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn errors counter: %w", err)
	}

	toolDuration, err := meter.Float64Histogram(
		"maestro_tool_execution_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	toolCalls, err := meter.Int64Counter(
		"maestro_tool_calls_total",
		metric.WithDescription("Total tool calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	toolErrors, err := meter.Int64Counter(
		"maestro_tool_errors_total",
		metric.WithDescription("Total tool errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	llmDuration, err := meter.Float64Histogram(
		"maestro_llm_request_duration_seconds",
		metric.WithDescription("LLM request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	llmInputTokens, err := meter.Int64Counter(
		"maestro_llm_tokens_input_total",
		metric.WithDescription("Total input tokens sent to LLMs"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm input tokens counter: %w", err)
	}

	llmOutputTokens, err := meter.Int64Counter(
		"maestro_llm_tokens_output_total",
		metric.WithDescription("Total output tokens from LLMs"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm output tokens counter: %w", err)
	}

	llmErrors, err := meter.Int64Counter(
		"maestro_llm_errors_total",
		metric.WithDescription("Total LLM errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm errors counter: %w", err)
	}

	searchAttempts, err := meter.Int64Counter(
		"maestro_search_attempts_total",
		metric.WithDescription("Total search engine attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search attempts counter: %w", err)
	}

	searchScore, err := meter.Float64Histogram(
		"maestro_search_quality_score",
		metric.WithDescription("Quality score of accepted search passages"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search score histogram: %w", err)
	}

	return &PrometheusMetrics{
		turnDuration:    turnDuration,
		turnTotal:       turnTotal,
		turnErrors:      turnErrors,
		toolDuration:    toolDuration,
		toolCallsTotal:  toolCalls,
		toolErrorsTotal: toolErrors,
		llmDuration:     llmDuration,
		llmInputTokens:  llmInputTokens,
		llmOutputTokens: llmOutputTokens,
		llmErrorsTotal:  llmErrors,
		searchAttempts:  searchAttempts,
		searchScore:     searchScore,
	}, nil
}
