package llm

import (
	"context"
	"encoding/json"
)

// maxToolRounds bounds the tool-call loop so a backend that keeps asking
// for tools cannot spin an invocation forever.
const maxToolRounds = 6

// Tool is a capability the model may call during an invocation. Schema is a
// JSON Schema object describing the arguments. Run executes the call and
// returns the observation fed back to the model; a Run error is reported to
// the model as the observation, not surfaced to the caller.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
	Run         func(ctx context.Context, args json.RawMessage) (string, error)
}

// InvokeRequest is one reasoning invocation: a system prompt, the context
// block to reason over, and any tools the model may use along the way.
type InvokeRequest struct {
	System string
	User   string
	Tools  []Tool
}

// Client defines the standard interface for any reasoning backend.
type Client interface {
	// Invoke runs the request to completion, resolving tool calls as they
	// come, and returns the model's final text.
	Invoke(ctx context.Context, req InvokeRequest) (string, error)
	// Backend names the provider for health reporting.
	Backend() string
}

func findTool(tools []Tool, name string) *Tool {
	for i := range tools {
		if tools[i].Name == name {
			return &tools[i]
		}
	}
	return nil
}

// runTool executes a named tool, folding lookup and execution errors into
// the observation string so the model can recover on the next round.
func runTool(ctx context.Context, tools []Tool, name string, args json.RawMessage) string {
	tool := findTool(tools, name)
	if tool == nil {
		return "error: unknown tool " + name
	}
	out, err := tool.Run(ctx, args)
	if err != nil {
		return "error: " + err.Error()
	}
	return out
}
