package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pilot"
	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

type styles struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	heading   lipgloss.Style
	title     lipgloss.Style
	code      lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

func newStyles(theme pilot.Theme) styles {
	heading := lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true)
	return styles{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		heading:   heading,
		title:     heading.Underline(true),
		code:      lipgloss.NewStyle().Foreground(ansiColor(theme.ToolCall)),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

// ansiColor maps a theme color index to a lipgloss color. Negative indices
// mean the terminal default.
func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// walker carries the source of one render call through the AST.
type walker struct {
	styles *styles
	source []byte
}

func (r *Renderer) render(source []byte) string {
	doc := r.md.Parser().Parse(text.NewReader(source))
	w := walker{styles: &r.styles, source: source}

	var buf bytes.Buffer
	w.blocks(doc, r.width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (w walker) blocks(node ast.Node, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.block(c, width, buf)
		if c.NextSibling() != nil {
			buf.WriteString("\n")
		}
	}
}

func (w walker) block(node ast.Node, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		buf.WriteString(wrap(w.inline(n), width))
		buf.WriteString("\n")

	case *ast.Heading:
		style := w.styles.heading
		if n.Level == 1 {
			style = w.styles.title
		}
		buf.WriteString(wrap(style.Render(w.inline(n)), width))
		buf.WriteString("\n")

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.source)); lang != "" {
			buf.WriteString(w.styles.muted.Render(lang))
			buf.WriteString("\n")
		}
		w.codeLines(n, buf)

	case *ast.CodeBlock:
		w.codeLines(n, buf)

	case *ast.List:
		w.list(n, width, buf, 0)

	case *ast.Blockquote:
		var inner bytes.Buffer
		w.blocks(n, max(width-2, 10), &inner)
		gutter := w.styles.muted.Render("▎") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(gutter + line + "\n")
		}

	case *ast.ThematicBreak:
		buf.WriteString(w.styles.muted.Render(strings.Repeat("─", min(width, 40))))
		buf.WriteString("\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(w.source))
		}

	default:
		w.blocks(node, width, buf)
	}
}

// codeLines writes a code block verbatim behind a gutter.
func (w walker) codeLines(node ast.Node, buf *bytes.Buffer) {
	gutter := w.styles.muted.Render("│") + " "
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.WriteString(gutter)
		buf.WriteString(strings.TrimRight(string(seg.Value(w.source)), "\n"))
		buf.WriteString("\n")
	}
}

func (w walker) list(node *ast.List, width int, buf *bytes.Buffer, depth int) {
	n := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", n)
			n++
		}
		prefix := strings.Repeat("  ", depth) + marker

		var content bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if content.Len() > 0 {
					content.WriteString("\n")
				}
				content.WriteString(w.inline(in))
			case *ast.List:
				if content.Len() > 0 {
					writeItem(buf, prefix, content.String(), width)
					content.Reset()
				}
				w.list(in, width, buf, depth+1)
				prefix = strings.Repeat(" ", runewidth.StringWidth(prefix))
			default:
				w.block(ic, width, &content)
			}
		}
		if content.Len() > 0 {
			writeItem(buf, prefix, content.String(), width)
		}
	}
}

// writeItem writes a list item, indenting continuation lines to align with
// the text after the marker.
func writeItem(buf *bytes.Buffer, prefix, content string, width int) {
	pad := runewidth.StringWidth(prefix)
	lines := strings.Split(wrap(content, max(width-pad, 10)), "\n")
	indent := strings.Repeat(" ", pad)
	for i, line := range lines {
		if i == 0 {
			buf.WriteString(prefix)
		} else {
			buf.WriteString(indent)
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
}

// wrap soft-wraps s to width. lipgloss pads each line to the full width;
// the padding is trimmed so nothing trails on the terminal.
func wrap(s string, width int) string {
	lines := strings.Split(lipgloss.NewStyle().Width(width).Render(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

// inline collects styled inline text from a node's children.
func (w walker) inline(node ast.Node) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &buf)
	}
	return buf.String()
}

func (w walker) span(node ast.Node, buf *bytes.Buffer) {
	s := w.styles
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(w.source))
		switch {
		case n.HardLineBreak():
			buf.WriteByte('\n')
		case n.SoftLineBreak():
			buf.WriteByte(' ')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := w.inline(n)
		if n.Level == 1 {
			buf.WriteString(s.italic.Render(inner))
		} else {
			buf.WriteString(s.bold.Render(inner))
		}

	case *east.Strikethrough:
		buf.WriteString(s.strike.Render(w.inline(n)))

	case *east.TaskCheckBox:
		if n.IsChecked {
			buf.WriteString("[x] ")
		} else {
			buf.WriteString("[ ] ")
		}

	case *ast.CodeSpan:
		buf.WriteString(s.code.Render(w.inline(n)))

	case *ast.Link:
		buf.WriteString(s.underline.Render(w.inline(n)))
		buf.WriteString(" ")
		buf.WriteString(s.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(s.underline.Render(string(n.URL(w.source))))

	case *ast.Image:
		buf.WriteString(s.underline.Render(w.inline(n)))
		buf.WriteString(" ")
		buf.WriteString(s.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(w.source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, buf)
		}
	}
}
