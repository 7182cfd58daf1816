package llm

import "context"

// ToolDef describes a tool offered to the model.
type ToolDef struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolHandler executes one tool call. The returned string goes back to the
// model as the tool result; an error is surfaced to the model as a failed
// tool invocation, not swallowed.
type ToolHandler func(ctx context.Context, inputs map[string]any) (string, error)

// Client is the minimal generation surface the result processor needs.
// Plain generation is the tools call with an empty tool set.
type Client interface {
	// GenerateWithTools runs a bounded tool-use loop: each model turn may
	// request tool calls, whose results are fed back until the model stops
	// or maxSteps model turns have run.
	GenerateWithTools(ctx context.Context, prompt string, tools []ToolDef, handlers map[string]ToolHandler, maxSteps int) (string, error)
}
