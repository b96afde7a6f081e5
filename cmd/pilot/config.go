package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultPromptPath = ".pilot/prompt.md"

// Configuration keys. Flags share these names; environment variables use the
// PILOT_ prefix with dashes turned into underscores.
const (
	keyProvider     = "provider"
	keyModel        = "model"
	keyAPIKey       = "api-key"
	keyBaseURL      = "base-url"
	keySystemPrompt = "system-prompt"
	keyMaxTurns     = "max-turns"
	keyMaxTokens    = "max-tokens"
	keyWidth        = "width"
	keyNoColor      = "no-color"
	keyVerbose      = "verbose"
	keyConfig       = "config"
)

// config is the fully merged runtime configuration.
type config struct {
	Provider     string
	Model        string
	APIKey       string
	BaseURL      string
	SystemPrompt string
	MaxTurns     int
	MaxTokens    int
	Width        int
	NoColor      bool
	Verbose      bool
	Keys         apiKeys
}

func addFlags(flags *pflag.FlagSet) {
	flags.String(keyProvider, "", "Provider: openai, anthropic, gemini (auto-detected from API key env vars if omitted)")
	flags.String(keyModel, "", "Model ID (default: provider default)")
	flags.String(keyAPIKey, "", "API key (overrides the provider's env var)")
	flags.String(keyBaseURL, "", "API base URL (for proxies and compatible servers)")
	flags.String(keySystemPrompt, defaultPromptPath, "Path to system prompt file")
	flags.Int(keyMaxTurns, 50, "Maximum model calls per user message (0 = unlimited)")
	flags.Int(keyMaxTokens, 0, "Maximum tokens per response (0 = provider default)")
	flags.Int(keyWidth, 100, "Wrap width for rendered output")
	flags.Bool(keyNoColor, false, "Disable colored output")
	flags.BoolP(keyVerbose, "v", false, "Log requests and tool calls to stderr")
	flags.String(keyConfig, "", "Path to a config file (YAML, TOML or JSON)")
}

// newViper binds flags, environment and an optional config file. Precedence
// is flag, then environment, then config file, then flag default.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix("pilot")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Provider keys use their conventional unprefixed names.
	for _, p := range []string{"openai", "anthropic", "gemini"} {
		if err := v.BindEnv(p+"_api_key", envVar(p)); err != nil {
			return nil, fmt.Errorf("bind env: %w", err)
		}
	}

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Provider:  strings.ToLower(v.GetString(keyProvider)),
		Model:     v.GetString(keyModel),
		APIKey:    v.GetString(keyAPIKey),
		BaseURL:   v.GetString(keyBaseURL),
		MaxTurns:  v.GetInt(keyMaxTurns),
		MaxTokens: v.GetInt(keyMaxTokens),
		Width:     v.GetInt(keyWidth),
		NoColor:   v.GetBool(keyNoColor),
		Verbose:   v.GetBool(keyVerbose),
		Keys: apiKeys{
			OpenAI:    v.GetString("openai_api_key"),
			Anthropic: v.GetString("anthropic_api_key"),
			Gemini:    v.GetString("gemini_api_key"),
		},
	}
	if cfg.MaxTurns < 0 {
		return config{}, fmt.Errorf("--%s must be non-negative, got %d", keyMaxTurns, cfg.MaxTurns)
	}
	if cfg.MaxTokens < 0 {
		return config{}, fmt.Errorf("--%s must be non-negative, got %d", keyMaxTokens, cfg.MaxTokens)
	}

	prompt, err := loadSystemPrompt(v.GetString(keySystemPrompt))
	if err != nil {
		return config{}, err
	}
	cfg.SystemPrompt = prompt
	return cfg, nil
}

// loadSystemPrompt reads the prompt file. A missing default file means no
// system prompt; any other failure is an error.
func loadSystemPrompt(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return string(data), nil
	case errors.Is(err, fs.ErrNotExist) && path == defaultPromptPath:
		return "", nil
	default:
		return "", fmt.Errorf("read system prompt: %w", err)
	}
}
