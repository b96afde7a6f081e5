// Package gemini implements [pilot.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between pilot's
// domain types and the Gemini API types. Each turn is one blocking
// GenerateContent call.
package gemini

const (
	defaultModel     = "gemini-3.1-pro-preview"
	defaultMaxTokens = 65536
)
