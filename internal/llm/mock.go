package llm

import "context"

// MockClient is a deterministic client for tests. ToolsFunc, when set, takes
// over the call.
type MockClient struct {
	ToolsFunc func(ctx context.Context, prompt string, tools []ToolDef, handlers map[string]ToolHandler, maxSteps int) (string, error)
}

func (m *MockClient) GenerateWithTools(ctx context.Context, prompt string, tools []ToolDef, handlers map[string]ToolHandler, maxSteps int) (string, error) {
	if m.ToolsFunc != nil {
		return m.ToolsFunc(ctx, prompt, tools, handlers, maxSteps)
	}
	return "mock response", nil
}
