package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/pilot"
	"github.com/fwojciec/pilot/anthropic"
	"github.com/fwojciec/pilot/gemini"
	"github.com/fwojciec/pilot/openai"
)

// apiKeys holds the provider keys found in the environment or config file.
type apiKeys struct {
	OpenAI    string
	Anthropic string
	Gemini    string
}

func (k apiKeys) get(provider string) string {
	switch provider {
	case "openai":
		return k.OpenAI
	case "anthropic":
		return k.Anthropic
	case "gemini":
		return k.Gemini
	}
	return ""
}

// envVar names the environment variable holding a provider's key.
func envVar(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

// resolveConfig picks the provider name and API key. An explicit provider
// wins; otherwise the provider is inferred from which single key is set. An
// explicit API key overrides the one found for the provider.
func resolveConfig(providerFlag, apiKeyFlag string, keys apiKeys) (name, key string, err error) {
	name = providerFlag
	if name == "" {
		var found []string
		for _, p := range []string{"openai", "anthropic", "gemini"} {
			if keys.get(p) != "" {
				found = append(found, p)
			}
		}
		switch len(found) {
		case 0:
			if apiKeyFlag != "" {
				return "", "", fmt.Errorf("--api-key given without --provider: cannot tell which provider it belongs to")
			}
			return "", "", fmt.Errorf("no API key found: set OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY (or use --provider and --api-key)")
		case 1:
			name = found[0]
		default:
			vars := make([]string, len(found))
			for i, p := range found {
				vars[i] = envVar(p)
			}
			return "", "", fmt.Errorf("multiple API keys found (%s): use --provider to select", strings.Join(vars, ", "))
		}
	}

	switch name {
	case "openai", "anthropic", "gemini":
	default:
		return "", "", fmt.Errorf("unknown provider %q: must be \"openai\", \"anthropic\" or \"gemini\"", name)
	}

	key = apiKeyFlag
	if key == "" {
		key = keys.get(name)
	}
	if key == "" {
		return "", "", fmt.Errorf("%s not set (use --api-key or the environment variable)", envVar(name))
	}
	return name, key, nil
}

// newProvider constructs the named provider. An empty baseURL keeps the
// provider's public endpoint.
func newProvider(ctx context.Context, name, key, baseURL string) (pilot.Provider, error) {
	switch name {
	case "openai":
		var opts []openai.Option
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
		}
		return openai.New(key, opts...), nil
	case "anthropic":
		var opts []anthropic.Option
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(baseURL, "/")))
		}
		return anthropic.New(key, opts...), nil
	case "gemini":
		var opts []gemini.Option
		if baseURL != "" {
			opts = append(opts, gemini.WithBaseURL(baseURL))
		}
		client, err := gemini.New(ctx, key, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
