// Package tools holds the process-wide tool catalog and the built-in tools.
// Every tool returns a string: success text or a human-readable error with a
// stable leading tag. Tools never fail across the registry boundary, so the
// agentic loop sees errors as ordinary tool output.
package tools

import (
	"context"
	"fmt"
)

// ToolInfo describes a tool for function-calling models. Parameters is a
// JSON schema object: {type:"object", properties:{...}, required:[...]}.
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type Tool interface {
	GetInfo() ToolInfo

	Execute(ctx context.Context, args map[string]interface{}) string

	GetName() string

	GetDescription() string
}

// DefaultQuerySchema is the parameter schema for tools that take a single
// search query.
func DefaultQuerySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query to run",
			},
			"num_results": map[string]interface{}{
				"type":        "integer",
				"description": "Number of results to return (default 3)",
			},
		},
		"required": []interface{}{"query"},
	}
}

// StringArg extracts a string argument, tolerating missing keys.
func StringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// IntArg extracts an integer argument; JSON numbers arrive as float64.
func IntArg(args map[string]interface{}, key string, fallback int) int {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// BoolArg extracts a boolean argument.
func BoolArg(args map[string]interface{}, key string, fallback bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}
