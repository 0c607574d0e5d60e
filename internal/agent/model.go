package agent

import "context"

// Role identifies the author of a Turn.
type Role string

// Possible turn roles. RoleTool turns carry a tool execution result
// back to the model.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request from the model to invoke a named
// tool with specific arguments.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult carries the outcome of one tool execution back into the
// conversation context.
type ToolResult struct {
	Name   string
	Output map[string]any
}

// Turn is one entry in the conversation context sent to the model.
// Exactly one of Text / ToolCalls / ToolResult carries the payload,
// except assistant turns which may pair Text with ToolCalls.
type Turn struct {
	Role       Role
	Text       string
	ToolCalls  []ToolCall
	ToolResult *ToolResult
}

// Schema is a minimal JSON-schema subset describing tool parameters.
// The model client translates it into its provider's native format.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Required    []string
	Enum        []string
	Items       *Schema
}

// Schema type names.
const (
	TypeObject  = "object"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
)

// ToolSpec is the model-facing declaration of a callable tool.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Request is one model invocation: a system instruction, the ordered
// conversation turns, and the tools the model may call. An empty Tools
// slice disables tool access entirely, which is how the second phase of
// an orchestrated run forces a natural-language reply.
type Request struct {
	SystemInstruction string
	Turns             []Turn
	Tools             []ToolSpec
}

// Reply is the model's response to a Request: either plain text, one or
// more requested tool calls, or (per the tool-calling protocol) never
// meaningfully both.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// LLMClient abstracts the language-model backend. Implementations are
// responsible for retries and for classifying provider failures into
// this package's error taxonomy (ErrModelAuth, ErrModelRateLimited,
// ErrModelTimeout, ErrModelFailure).
type LLMClient interface {
	Generate(ctx context.Context, req *Request) (*Reply, error)
}
