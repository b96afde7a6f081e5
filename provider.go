package pilot

import "context"

// Provider is a strategy interface for language-model backends. Generate
// performs one blocking completion call for the whole request and returns
// the assembled assistant message. Transport and credential failures are
// returned as errors; they are never retried.
type Provider interface {
	Generate(ctx context.Context, req Request) (AssistantMessage, error)
}

// Request carries the conversation and generation parameters for one
// completion call. The provider uses its own defaults when fields are
// zero/nil. Providers receive Request by value and must not modify the
// elements of Messages or Tools.
type Request struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
	MaxTokens    int      // 0 = provider default
	Temperature  *float64 // nil = provider default
}
