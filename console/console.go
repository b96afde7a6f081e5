// Package console implements the interactive terminal session: it reads one
// line of user input per turn, hands it to the agent loop and prints what
// happens.
package console

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pilot"
	"github.com/fwojciec/pilot/agent"
	"github.com/fwojciec/pilot/markdown"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
)

// maxLineSize bounds a single line of user input.
const maxLineSize = 1 << 20

// Runner runs one user turn to completion. *agent.Loop implements it.
type Runner interface {
	Run(ctx context.Context, conv *pilot.Conversation, tools []pilot.Tool, opts ...agent.RunOption) error
}

// Compile-time interface check.
var _ Runner = (*agent.Loop)(nil)

// Console is a line-oriented chat session over an input and output stream.
type Console struct {
	in      io.Reader
	out     io.Writer
	runner  Runner
	conv    *pilot.Conversation
	tools   []pilot.Tool
	runOpts []agent.RunOption
	log     logrus.FieldLogger

	theme  pilot.Theme
	width  int
	label  string
	banner string

	styles   styles
	renderer *markdown.Renderer
}

type styles struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	tool      lipgloss.Style
	err       lipgloss.Style
	muted     lipgloss.Style
}

// Option configures a [Console].
type Option func(*Console)

// WithInput sets the stream user lines are read from. Default is os.Stdin.
func WithInput(r io.Reader) Option {
	return func(c *Console) { c.in = r }
}

// WithOutput sets the stream the session is printed to. Default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Console) { c.out = w }
}

// WithTheme sets the color theme.
func WithTheme(t pilot.Theme) Option {
	return func(c *Console) { c.theme = t }
}

// WithWidth sets the wrap width for assistant text and tool previews.
func WithWidth(width int) Option {
	return func(c *Console) {
		if width > 0 {
			c.width = width
		}
	}
}

// WithAssistantLabel sets the name printed before assistant answers.
func WithAssistantLabel(label string) Option {
	return func(c *Console) { c.label = label }
}

// WithBanner sets a line printed once when the session starts.
func WithBanner(banner string) Option {
	return func(c *Console) { c.banner = banner }
}

// WithRunOptions sets options passed to every Runner.Run call.
func WithRunOptions(opts ...agent.RunOption) Option {
	return func(c *Console) { c.runOpts = opts }
}

// WithLogger sets the logger for failed turns.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Console) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a Console that runs turns of conv through runner.
func New(runner Runner, conv *pilot.Conversation, tools []pilot.Tool, opts ...Option) *Console {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Console{
		in:     os.Stdin,
		out:    os.Stdout,
		runner: runner,
		conv:   conv,
		tools:  tools,
		log:    discard,
		theme:  pilot.DefaultTheme(),
		width:  80,
		label:  "Assistant",
	}
	for _, o := range opts {
		o(c)
	}
	c.styles = newStyles(c.theme)
	c.renderer = markdown.New(c.theme, markdown.WithWidth(c.width))
	return c
}

func newStyles(t pilot.Theme) styles {
	fg := func(i int) lipgloss.Style {
		if i < 0 {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(strconv.Itoa(i)))
	}
	return styles{
		user:      fg(t.UserMsg).Bold(true),
		assistant: fg(t.Assistant).Bold(true),
		tool:      fg(t.ToolCall),
		err:       fg(t.Error),
		muted:     fg(t.Muted),
	}
}

type scanResult struct {
	line string
	err  error
}

// Run reads lines until end of input, /exit or /quit, or until ctx is
// canceled. A turn that fails is reported, removed from the history and the
// session continues. Run only returns an error when reading input fails.
func (c *Console) Run(ctx context.Context) error {
	if c.banner != "" {
		fmt.Fprintln(c.out, c.banner)
	}

	// The reader goroutine may stay blocked on input after ctx is canceled;
	// it exits with the process.
	lines := make(chan scanResult)
	go c.scan(lines)

	for {
		fmt.Fprint(c.out, c.styles.user.Render("You")+": ")

		var line string
		select {
		case <-ctx.Done():
			c.goodbye()
			return nil
		case res, ok := <-lines:
			if !ok {
				c.goodbye()
				return nil
			}
			if res.err != nil {
				fmt.Fprintln(c.out)
				return fmt.Errorf("console: read input: %w", res.err)
			}
			line = strings.TrimSpace(res.line)
		}

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			c.goodbye()
			return nil
		case "/reset":
			c.conv.Reset()
			fmt.Fprintln(c.out, c.styles.muted.Render("Conversation cleared."))
			continue
		}

		c.turn(ctx, line)
		if ctx.Err() != nil {
			c.goodbye()
			return nil
		}
	}
}

func (c *Console) scan(lines chan<- scanResult) {
	defer close(lines)
	sc := bufio.NewScanner(c.in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		lines <- scanResult{line: sc.Text()}
	}
	if err := sc.Err(); err != nil {
		lines <- scanResult{err: err}
	}
}

func (c *Console) goodbye() {
	fmt.Fprintln(c.out, "\nGoodbye!")
}

// turn appends the user line and runs the loop. On failure the history is
// rolled back to where it was before the line was added.
func (c *Console) turn(ctx context.Context, line string) {
	mark := c.conv.Len()
	c.conv.Append(pilot.NewUserMessage(line))

	opts := append(append([]agent.RunOption(nil), c.runOpts...), agent.WithEventHandler(c.handle))
	err := c.runner.Run(ctx, c.conv, c.tools, opts...)
	if err == nil {
		return
	}

	c.conv.Truncate(mark)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}
	c.log.WithError(err).WithField("conversation", c.conv.ID).Debug("turn failed")
	fmt.Fprintln(c.out, c.styles.err.Render("Error: "+err.Error()))
}

func (c *Console) handle(e pilot.Event) {
	switch e := e.(type) {
	case pilot.EventAssistantMessage:
		text := e.Message.Text()
		if text == "" {
			return
		}
		fmt.Fprintln(c.out, c.styles.assistant.Render(c.label)+":")
		fmt.Fprintln(c.out, c.renderer.Render(text))

	case pilot.EventToolCall:
		fmt.Fprintln(c.out, c.styles.tool.Render("tool")+": "+e.Call.Name+"("+c.preview(e.Call)+")")

	case pilot.EventToolResult:
		if !e.IsError {
			return
		}
		msg, _, _ := strings.Cut(e.Content, "\n")
		msg = runewidth.Truncate(msg, max(c.width-4, 10), "…")
		fmt.Fprintln(c.out, c.styles.err.Render("  ↳ "+msg))
	}
}

// preview returns the call's arguments as compact JSON, truncated so the
// whole tool line fits the console width.
func (c *Console) preview(call pilot.ToolCallBlock) string {
	args := string(call.Arguments)
	var buf bytes.Buffer
	if err := json.Compact(&buf, call.Arguments); err == nil {
		args = buf.String()
	}
	room := c.width - runewidth.StringWidth("tool: "+call.Name+"()")
	return runewidth.Truncate(args, max(room, 10), "…")
}
