// Package markdown renders markdown text to ANSI-styled terminal output
// using goldmark for parsing and lipgloss for styling.
package markdown

import (
	"github.com/fwojciec/pilot"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const defaultWidth = 80

// Renderer turns markdown into styled terminal text. A Renderer holds no
// per-call state and is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	styles styles
	width  int
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithWidth sets the wrap width. Values below one fall back to 80 columns.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// New returns a Renderer styled with theme.
func New(theme pilot.Theme, opts ...Option) *Renderer {
	r := &Renderer{
		md: goldmark.New(goldmark.WithExtensions(
			extension.Strikethrough,
			extension.TaskList,
			extension.Linkify,
		)),
		styles: newStyles(theme),
		width:  defaultWidth,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to the renderer's width. Code
// blocks are rendered without reflow.
func (r *Renderer) Render(source string) string {
	if source == "" {
		return ""
	}
	return r.render([]byte(source))
}

// Render is shorthand for New(theme, WithWidth(width)).Render(source).
func Render(source string, width int, theme pilot.Theme) string {
	return New(theme, WithWidth(width)).Render(source)
}
