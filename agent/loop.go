// Package agent drives the read-think-act cycle between a Provider and a
// ToolExecutor.
package agent

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/pilot"
	"github.com/sirupsen/logrus"
)

// Loop orchestrates the conversation between a Provider and a ToolExecutor.
// A Loop is not safe for concurrent use; tool calls run strictly one at a
// time.
type Loop struct {
	provider pilot.Provider
	executor pilot.ToolExecutor
	log      logrus.FieldLogger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for debug tracing of turns and tool calls.
// By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// New creates a new Loop with the given provider and tool executor.
func New(provider pilot.Provider, executor pilot.ToolExecutor, opts ...Option) *Loop {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	l := &Loop{provider: provider, executor: executor, log: discard}
	for _, o := range opts {
		o(l)
	}
	return l
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

type runConfig struct {
	onEvent     func(pilot.Event)
	model       string
	maxTokens   int
	temperature *float64
	maxTurns    int
}

// WithEventHandler sets a callback that receives progress events during the
// run. If nil or not set, events are silently discarded.
func WithEventHandler(h func(pilot.Event)) RunOption {
	return func(c *runConfig) {
		c.onEvent = h
	}
}

// WithModel sets the model ID for provider requests during this run.
// Empty string means the provider uses its default model.
func WithModel(model string) RunOption {
	return func(c *runConfig) {
		c.model = model
	}
}

// WithMaxTokens caps the response length of each model call. Zero means the
// provider default.
func WithMaxTokens(n int) RunOption {
	return func(c *runConfig) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature for provider requests.
func WithTemperature(t float64) RunOption {
	return func(c *runConfig) {
		c.temperature = &t
	}
}

// WithMaxTurns bounds the number of model calls a single Run may make.
// Zero means unlimited.
func WithMaxTurns(n int) RunOption {
	return func(c *runConfig) {
		c.maxTurns = n
	}
}

// Run executes the agent loop. It sends the conversation to the provider,
// executes any tool calls the response contains, and repeats until the
// assistant answers without requesting tools. Every message is appended to
// conv. Provider errors are returned unchanged and end the run; tool
// failures are reported back to the model as error results instead.
func (l *Loop) Run(ctx context.Context, conv *pilot.Conversation, tools []pilot.Tool, opts ...RunOption) error {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	for n := 1; ; n++ {
		if cfg.maxTurns > 0 && n > cfg.maxTurns {
			return fmt.Errorf("agent: stopped after %d model calls: %w", cfg.maxTurns, pilot.ErrTurnLimit)
		}
		cont, err := l.turn(ctx, conv, tools, &cfg, n)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

// turn executes a single model call and the tool calls it requests. It
// returns true if the loop should continue (tool calls were made), false if
// it should stop.
func (l *Loop) turn(ctx context.Context, conv *pilot.Conversation, tools []pilot.Tool, cfg *runConfig, n int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	req := pilot.Request{
		Model:        cfg.model,
		SystemPrompt: conv.SystemPrompt,
		Messages:     conv.Messages,
		Tools:        tools,
		MaxTokens:    cfg.maxTokens,
		Temperature:  cfg.temperature,
	}
	if err := req.Validate(); err != nil {
		return false, fmt.Errorf("agent: %w", err)
	}

	log := l.log.WithFields(logrus.Fields{"conversation": conv.ID, "turn": n})
	log.WithField("messages", len(req.Messages)).Debug("requesting completion")

	start := time.Now()
	msg, err := l.provider.Generate(ctx, req)
	if err != nil {
		log.WithError(err).Debug("completion failed")
		return false, err
	}
	if len(msg.Content) == 0 {
		return false, fmt.Errorf("agent: %w (stop reason %q)", pilot.ErrEmptyResponse, msg.RawStopReason)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	toolCalls := msg.ToolCalls()
	log.WithFields(logrus.Fields{
		"duration":      time.Since(start).Round(time.Millisecond),
		"stop_reason":   msg.StopReason,
		"tool_calls":    len(toolCalls),
		"input_tokens":  msg.Usage.InputTokens,
		"output_tokens": msg.Usage.OutputTokens,
	}).Debug("completion received")

	conv.Append(msg)
	emit(cfg, pilot.EventAssistantMessage{Message: msg})

	if len(toolCalls) == 0 {
		return false, nil
	}

	for _, tc := range toolCalls {
		emit(cfg, pilot.EventToolCall{Call: tc})
		result := l.execute(ctx, log, tc)
		conv.Append(pilot.ToolResultMessage{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Content:    result.Content,
			IsError:    result.IsError,
			Timestamp:  time.Now(),
		})
		emit(cfg, pilot.EventToolResult{
			ID:       tc.ID,
			ToolName: tc.Name,
			Content:  result.Text(),
			IsError:  result.IsError,
		})
	}

	return true, nil
}

// execute runs one tool call. Infrastructure errors and nil results are
// converted into error results so the model always gets an answer.
func (l *Loop) execute(ctx context.Context, log logrus.FieldLogger, tc pilot.ToolCallBlock) *pilot.ToolResult {
	start := time.Now()
	result, err := l.executor.Execute(ctx, tc.Name, tc.Arguments)
	switch {
	case err != nil:
		result = pilot.ErrorResult(err.Error())
	case result == nil:
		result = pilot.ErrorResult(fmt.Sprintf("tool %s returned no result", tc.Name))
	}
	log.WithFields(logrus.Fields{
		"tool":     tc.Name,
		"call_id":  tc.ID,
		"is_error": result.IsError,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("tool executed")
	return result
}

func emit(cfg *runConfig, e pilot.Event) {
	if cfg.onEvent != nil {
		cfg.onEvent(e)
	}
}
