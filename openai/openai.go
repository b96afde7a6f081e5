// Package openai implements [pilot.Provider] for the OpenAI Chat Completions
// API using the official openai-go SDK.
package openai

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
)
