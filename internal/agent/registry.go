package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ToolFunc executes a tool on behalf of the authenticated user. The
// userID parameter is authoritative: implementations must scope every
// read and mutation by it and ignore any user identifier the model may
// have put into args.
type ToolFunc func(ctx context.Context, userID uuid.UUID, args map[string]any) (map[string]any, error)

// Tool pairs a model-facing spec with its execution function.
type Tool struct {
	Spec    ToolSpec
	Execute ToolFunc
}

// Registry holds the fixed set of tools the orchestrator may invoke.
// Registration order is preserved in Specs so the model-facing tool
// list is stable.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Duplicate names are a programming error.
func (r *Registry) Register(tool Tool) error {
	if tool.Spec.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Execute == nil {
		return fmt.Errorf("tool %q has no execute function", tool.Spec.Name)
	}
	if _, exists := r.tools[tool.Spec.Name]; exists {
		return fmt.Errorf("tool %q already registered", tool.Spec.Name)
	}

	r.tools[tool.Spec.Name] = tool
	r.order = append(r.order, tool.Spec.Name)
	return nil
}

// Specs returns the declarations of all registered tools in
// registration order.
func (r *Registry) Specs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec)
	}
	return specs
}

// Execute runs the named tool scoped to the given user.
// Returns ErrUnknownTool if no tool has that name.
func (r *Registry) Execute(ctx context.Context, userID uuid.UUID, name string, args map[string]any) (map[string]any, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	return tool.Execute(ctx, userID, args)
}
