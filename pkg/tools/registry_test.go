package tools

import (
	"context"
	"strings"
	"testing"
)

// echoTool is a minimal in-memory tool for registry tests.
type echoTool struct {
	name   string
	reply  string
	params map[string]interface{}
}

func (t *echoTool) GetName() string { return t.name }
func (t *echoTool) GetDescription() string { return "echoes a fixed reply" }

func (t *echoTool) GetInfo() ToolInfo {
	params := t.params
	if params == nil {
		params = map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []interface{}{},
		}
	}
	return ToolInfo{Name: t.name, Description: t.GetDescription(), Parameters: params}
}

func (t *echoTool) Execute(_ context.Context, args map[string]interface{}) string {
	if q := StringArg(args, "query"); q != "" {
		return t.reply + ": " + q
	}
	return t.reply
}

func TestRegisterToolValidatesSchema(t *testing.T) {
	r := NewToolRegistry()

	if err := r.RegisterTool(nil, false); err == nil {
		t.Error("nil tool must be rejected")
	}

	bad := &echoTool{name: "bad_type", params: map[string]interface{}{"type": "string"}}
	if err := r.RegisterTool(bad, false); err == nil {
		t.Error("non-object schema must be rejected")
	}

	good := &echoTool{name: "echo", reply: "ok", params: DefaultQuerySchema()}
	if err := r.RegisterTool(good, false); err != nil {
		t.Fatalf("RegisterTool() error = %v", err)
	}

	if err := r.RegisterTool(good, false); err == nil {
		t.Error("duplicate registration without replace must fail")
	}
	if err := r.RegisterTool(good, true); err != nil {
		t.Errorf("replace registration error = %v", err)
	}
}

func TestExecuteTool(t *testing.T) {
	r := NewToolRegistry()
	if err := r.RegisterTool(&echoTool{name: "echo", reply: "ok"}, false); err != nil {
		t.Fatalf("RegisterTool() error = %v", err)
	}

	output, found := r.ExecuteTool(context.Background(), "echo", map[string]interface{}{"query": "ping"})
	if !found {
		t.Fatal("ExecuteTool reported tool not found")
	}
	if output != "ok: ping" {
		t.Errorf("output = %q, want %q", output, "ok: ping")
	}

	if _, found := r.ExecuteTool(context.Background(), "missing", nil); found {
		t.Error("unknown tool must report found=false")
	}
}

func TestDescriptorsStableOrder(t *testing.T) {
	r := NewToolRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.RegisterTool(&echoTool{name: name}, false); err != nil {
			t.Fatalf("RegisterTool(%s) error = %v", name, err)
		}
	}

	descriptors := r.Descriptors()
	want := []string{"alpha", "mid", "zeta"}
	if len(descriptors) != len(want) {
		t.Fatalf("got %d descriptors, want %d", len(descriptors), len(want))
	}
	for i, info := range descriptors {
		if info.Name != want[i] {
			t.Errorf("descriptor[%d] = %q, want %q", i, info.Name, want[i])
		}
	}
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"query":       "tides",
		"num_results": float64(5),
		"flag":        true,
		"count":       7,
	}

	if got := StringArg(args, "query"); got != "tides" {
		t.Errorf("StringArg = %q", got)
	}
	if got := StringArg(args, "missing"); got != "" {
		t.Errorf("StringArg(missing) = %q, want empty", got)
	}
	if got := StringArg(args, "count"); got != "7" {
		t.Errorf("StringArg(count) = %q, want stringified 7", got)
	}

	if got := IntArg(args, "num_results", 3); got != 5 {
		t.Errorf("IntArg(float64) = %d, want 5", got)
	}
	if got := IntArg(args, "count", 3); got != 7 {
		t.Errorf("IntArg(int) = %d, want 7", got)
	}
	if got := IntArg(args, "missing", 3); got != 3 {
		t.Errorf("IntArg(missing) = %d, want fallback 3", got)
	}
	if got := IntArg(map[string]interface{}{"n": "nope"}, "n", 3); got != 3 {
		t.Errorf("IntArg(non-numeric) = %d, want fallback 3", got)
	}

	if !BoolArg(args, "flag", false) {
		t.Error("BoolArg(flag) = false")
	}
	if BoolArg(args, "missing", false) {
		t.Error("BoolArg(missing) != fallback")
	}
}

func TestRegisterToolSchemaErrorNamesTool(t *testing.T) {
	r := NewToolRegistry()
	bad := &echoTool{name: "busted", params: map[string]interface{}{"type": 42}}

	err := r.RegisterTool(bad, false)
	if err == nil {
		t.Fatal("expected schema error")
	}
	if !strings.Contains(err.Error(), "busted") {
		t.Errorf("error %q does not name the tool", err)
	}
}
