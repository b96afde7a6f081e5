package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/pilot"
)

// Interface compliance check.
var _ pilot.ToolExecutor = (*ToolExecutor)(nil)

// ToolExecutor is a test double for pilot.ToolExecutor.
// Set ExecuteFn before calling Execute.
type ToolExecutor struct {
	ExecuteFn func(ctx context.Context, name string, args json.RawMessage) (*pilot.ToolResult, error)
}

// Execute delegates to ExecuteFn.
func (e *ToolExecutor) Execute(ctx context.Context, name string, args json.RawMessage) (*pilot.ToolResult, error) {
	return e.ExecuteFn(ctx, name, args)
}
