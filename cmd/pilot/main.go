// Command pilot is a terminal chat agent that can read, list and edit files
// in the current directory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fwojciec/pilot"
	"github.com/fwojciec/pilot/agent"
	"github.com/fwojciec/pilot/builtin"
	"github.com/fwojciec/pilot/console"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pilot: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pilot",
		Short: "Chat with a language model that can work on local files",
		Long: heredoc.Doc(`
			pilot starts an interactive chat with a language model. The model can
			read files, list directories and edit files relative to the current
			working directory.

			The provider is picked from --provider or, if omitted, from whichever
			of OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY is set. Every
			flag can also be set as a PILOT_* environment variable (for example
			PILOT_MAX_TURNS) or in the file given by --config.

			Type /reset to start over and /exit (or Ctrl-D) to leave.
		`),
		Example: heredoc.Doc(`
			$ OPENAI_API_KEY=sk-... pilot
			$ pilot --provider anthropic --model claude-sonnet-4-5
			$ pilot --config ~/.config/pilot.yaml --verbose
		`),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addFlags(cmd.Flags())
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		v, err := newViper(cmd.Flags())
		if err != nil {
			return err
		}
		cfg, err := loadConfig(v)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, in, out, errOut)
	}
	return cmd
}

func run(ctx context.Context, cfg config, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := logrus.New()
	log.SetOutput(errOut)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	name, key, err := resolveConfig(cfg.Provider, cfg.APIKey, cfg.Keys)
	if err != nil {
		return err
	}
	provider, err := newProvider(ctx, name, key, cfg.BaseURL)
	if err != nil {
		return err
	}

	conv := pilot.NewConversation(uuid.NewString(), cfg.SystemPrompt)
	log.WithFields(logrus.Fields{
		"conversation": conv.ID,
		"provider":     name,
		"model":        cfg.Model,
	}).Debug("starting session")

	registry := builtin.New()
	loop := agent.New(provider, registry, agent.WithLogger(log))

	runOpts := []agent.RunOption{agent.WithMaxTurns(cfg.MaxTurns)}
	if cfg.Model != "" {
		runOpts = append(runOpts, agent.WithModel(cfg.Model))
	}
	if cfg.MaxTokens > 0 {
		runOpts = append(runOpts, agent.WithMaxTokens(cfg.MaxTokens))
	}

	theme := pilot.DefaultTheme()
	if cfg.NoColor {
		theme = pilot.PlainTheme()
	}

	label := cfg.Model
	if label == "" {
		label = name
	}
	c := console.New(loop, conv, registry.Tools(),
		console.WithInput(in),
		console.WithOutput(out),
		console.WithTheme(theme),
		console.WithWidth(cfg.Width),
		console.WithBanner(fmt.Sprintf("Chat with %s (use 'ctrl-c' to quit)", label)),
		console.WithRunOptions(runOpts...),
		console.WithLogger(log),
	)
	return c.Run(ctx)
}
