package pilot

import "errors"

// Sentinel errors shared by the loop, the providers and the tool registry.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrToolNotFound indicates the model asked for a tool that is not registered.
	ErrToolNotFound = errors.New("unknown tool")

	// ErrEmptyResponse indicates the provider answered without any content.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrTurnLimit indicates the loop stopped because the model kept
	// requesting tools past the configured number of turns.
	ErrTurnLimit = errors.New("turn limit reached")
)
