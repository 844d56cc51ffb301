package domain

import "context"

// SchemaProperty describes one named field of a tool's input schema.
type SchemaProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolSchema is the strict input contract for a tool: named, typed fields,
// required vs optional, enum constraints.
type ToolSchema struct {
	Required   []string                  `json:"required,omitempty"`
	Properties map[string]SchemaProperty `json:"properties"`
}

// ToolDefinition is the model-facing declaration of a capability: the name
// the model invokes, the description it uses to decide relevance, and the
// input schema it must satisfy.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      ToolSchema
}

// ToolCall is one tool invocation requested by the model within a turn.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ModelTurn is the model's tagged output for one invocation: either a final
// answer (no tool calls) or a batch of tool-call requests, possibly with
// accompanying text.
type ModelTurn struct {
	Text      string
	ToolCalls []ToolCall
}

// ModelRequest carries everything one model invocation needs.
type ModelRequest struct {
	System   string
	Messages []ChatMessage
	Tools    []ToolDefinition
}

// ChatModel defines how the orchestrator talks to an LLM service. Text is
// streamed through onDelta as it arrives; the returned turn holds the full
// text plus any tool calls collected from the stream.
type ChatModel interface {
	GenerateTurn(ctx context.Context, req ModelRequest, onDelta func(string)) (*ModelTurn, error)
}
