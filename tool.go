package pilot

import (
	"context"
	"encoding/json"
)

// Tool is the schema sent to the model describing a tool's capabilities.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolExecutor runs tools. Execute returns error for infrastructure failures.
// ToolResult.IsError indicates tool-reported domain failures sent back to
// the model.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (*ToolResult, error)
}

// ToolResult represents the outcome of a tool execution.
type ToolResult struct {
	Content []ContentBlock
	IsError bool
}

// TextResult returns a successful result holding text.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{TextBlock{Text: text}}}
}

// ErrorResult returns a failed result holding msg.
func ErrorResult(msg string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{TextBlock{Text: msg}}, IsError: true}
}

// Text joins the result's text blocks with newlines.
func (r *ToolResult) Text() string {
	if r == nil {
		return ""
	}
	return joinText(r.Content)
}
