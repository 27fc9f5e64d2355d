package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestrohq/maestro/pkg/logger"
	"github.com/maestrohq/maestro/pkg/observability"
	"github.com/maestrohq/maestro/pkg/registry"
)

// ToolRegistry is the authoritative catalog of named tools handed to each
// provider call. It is populated at startup and read-mostly afterwards.
type ToolRegistry struct {
	*registry.BaseRegistry[Tool]
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		BaseRegistry: registry.NewBaseRegistry[Tool](),
	}
}

// RegisterTool adds a tool after validating its parameter schema. Duplicate
// names are rejected unless replace is set.
func (r *ToolRegistry) RegisterTool(tool Tool, replace bool) error {
	if tool == nil {
		return fmt.Errorf("cannot register nil tool")
	}

	info := tool.GetInfo()
	if err := validateParameterSchema(info.Name, info.Parameters); err != nil {
		return err
	}

	if replace {
		return r.RegisterReplace(info.Name, tool)
	}
	return r.Register(info.Name, tool)
}

// Lookup returns the tool registered under name.
func (r *ToolRegistry) Lookup(name string) (Tool, bool) {
	return r.Get(name)
}

// Descriptors returns every tool descriptor in stable (sorted-name) order.
func (r *ToolRegistry) Descriptors() []ToolInfo {
	toolList := r.List()
	descriptors := make([]ToolInfo, 0, len(toolList))
	for _, tool := range toolList {
		descriptors = append(descriptors, tool.GetInfo())
	}
	return descriptors
}

// ExecuteTool runs a registered tool with tracing and metrics. The returned
// bool is false when no tool is registered under name.
func (r *ToolRegistry) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (string, bool) {
	tool, ok := r.Get(name)
	if !ok {
		return "", false
	}

	tracer := observability.GetTracer("maestro.tools")
	ctx, span := tracer.Start(ctx, observability.SpanToolExecute,
		trace.WithAttributes(attribute.String(observability.AttrToolName, name)),
	)
	defer span.End()

	start := time.Now()
	output := tool.Execute(ctx, args)
	duration := time.Since(start)

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordToolExecution(ctx, name, duration, nil)
	}

	logger.GetLogger().Debug("tool executed", "tool", name, "duration", duration)

	return output, true
}

// validateParameterSchema compiles the schema to catch malformed descriptors
// at registration instead of at the first provider call.
func validateParameterSchema(name string, schema map[string]interface{}) error {
	if schema == nil {
		return fmt.Errorf("tool %q has no parameter schema", name)
	}
	if t, _ := schema["type"].(string); t != "object" {
		return fmt.Errorf("tool %q parameter schema must have type \"object\"", name)
	}

	compiler := jsonschema.NewCompiler()
	url := fmt.Sprintf("mem://tools/%s.json", name)
	if err := compiler.AddResource(url, normalizeSchema(schema)); err != nil {
		return fmt.Errorf("tool %q schema: %w", name, err)
	}
	if _, err := compiler.Compile(url); err != nil {
		return fmt.Errorf("tool %q schema: %w", name, err)
	}
	return nil
}

// normalizeSchema deep-copies the schema so compilation never aliases the
// registered descriptor.
func normalizeSchema(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case map[string]interface{}:
			out[k] = normalizeSchema(t)
		case []interface{}:
			cp := make([]interface{}, len(t))
			copy(cp, t)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
