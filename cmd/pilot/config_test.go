package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseConfig(t *testing.T, args ...string) (config, error) {
	t.Helper()
	flags := pflag.NewFlagSet("pilot", pflag.ContinueOnError)
	addFlags(flags)
	require.NoError(t, flags.Parse(args))
	v, err := newViper(flags)
	if err != nil {
		return config{}, err
	}
	return loadConfig(v)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := parseConfig(t)
	require.NoError(t, err)
	assert.Empty(t, cfg.Provider)
	assert.Empty(t, cfg.SystemPrompt)
	assert.Equal(t, 50, cfg.MaxTurns)
	assert.Equal(t, 100, cfg.Width)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_Flags(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := parseConfig(t, "--provider", "Anthropic", "--model", "m", "--max-turns", "3", "-v")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "m", cfg.Model)
	assert.Equal(t, 3, cfg.MaxTurns)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PILOT_MAX_TURNS", "7")
	t.Setenv("PILOT_MODEL", "env-model")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GEMINI_API_KEY", "g-env")

	cfg, err := parseConfig(t, "--model", "flag-model")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxTurns)
	assert.Equal(t, "flag-model", cfg.Model)
	assert.Equal(t, apiKeys{OpenAI: "sk-env", Gemini: "g-env"}, cfg.Keys)
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "pilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: gemini\nmax-turns: 9\ngemini_api_key: g-file\n"), 0o644))
	t.Setenv("PILOT_MAX_TURNS", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := parseConfig(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 9, cfg.MaxTurns)
	assert.Equal(t, "g-file", cfg.Keys.Gemini)
}

func TestLoadConfig_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := parseConfig(t, "--config", "nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config nope.yaml")
}

func TestLoadConfig_NegativeMaxTurns(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := parseConfig(t, "--max-turns", "-1")
	require.Error(t, err)
}

func TestLoadSystemPrompt(t *testing.T) {
	t.Parallel()

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "prompt.md")
		require.NoError(t, os.WriteFile(path, []byte("Be brief."), 0o644))
		got, err := loadSystemPrompt(path)
		require.NoError(t, err)
		assert.Equal(t, "Be brief.", got)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		t.Parallel()
		_, err := loadSystemPrompt(filepath.Join(t.TempDir(), "missing.md"))
		require.Error(t, err)
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		got, err := loadSystemPrompt("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
