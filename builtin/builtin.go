// Package builtin provides the tool registry the agent dispatches tool calls
// through, preloaded with the file-system tools.
package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/pilot"
	"github.com/fwojciec/pilot/fs"
)

// Compile-time interface check.
var _ pilot.ToolExecutor = (*Registry)(nil)

// Func executes one tool call. A returned error is reported to the model as
// an error result rather than aborting the conversation.
type Func func(ctx context.Context, args json.RawMessage) (*pilot.ToolResult, error)

// Definition pairs a tool schema with its implementation.
type Definition struct {
	Tool pilot.Tool
	Func Func
}

// Registry maps tool names to definitions. It is populated once at startup
// and read-only afterwards, so Register must not race with Execute.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// New returns a registry holding read_file, list_files and edit_file.
func New() *Registry {
	r := NewRegistry()
	for _, def := range []Definition{
		{Tool: fs.ReadTool(), Func: fs.ExecuteRead},
		{Tool: fs.ListTool(), Func: fs.ExecuteList},
		{Tool: fs.EditTool(), Func: fs.ExecuteEdit},
	} {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a tool. Names must be non-empty and unique.
func (r *Registry) Register(def Definition) error {
	name := def.Tool.Name
	if name == "" {
		return errors.New("builtin: tool with empty name")
	}
	if def.Func == nil {
		return fmt.Errorf("builtin: tool %q has no implementation", name)
	}
	if _, ok := r.defs[name]; ok {
		return fmt.Errorf("builtin: duplicate tool %q", name)
	}
	r.defs[name] = def
	r.order = append(r.order, name)
	return nil
}

// Tools returns the tool schemas in registration order.
func (r *Registry) Tools() []pilot.Tool {
	tools := make([]pilot.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.defs[name].Tool)
	}
	return tools
}

// Execute dispatches a tool call by name. Unknown tool names and tool
// failures return an IsError result so the model can self-correct.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (*pilot.ToolResult, error) {
	def, ok := r.defs[name]
	if !ok {
		return pilot.ErrorResult(fmt.Sprintf("%s: %s", pilot.ErrToolNotFound, name)), nil
	}

	result, err := def.Func(ctx, args)
	if err != nil {
		return pilot.ErrorResult(fmt.Sprintf("Error: %s", err)), nil
	}
	if result == nil {
		return pilot.ErrorResult(fmt.Sprintf("Error: tool %s returned no result", name)), nil
	}
	return result, nil
}
