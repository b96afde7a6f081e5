package pilot

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values. A negative
// index disables coloring for that element.
type Theme struct {
	UserMsg   int // "You" prompt
	Assistant int // assistant label
	ToolCall  int // tool invocation lines
	Error     int // error messages
	Success   int // successful tool results
	Muted     int // argument previews, code gutters
	Accent    int // markdown headings, links
}

// DefaultTheme returns the default ANSI color mapping. The prompt colors
// follow the classic blue user / yellow assistant / green tool scheme.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:   12,
		Assistant: 11,
		ToolCall:  10,
		Error:     1,
		Success:   2,
		Muted:     8,
		Accent:    5,
	}
}

// PlainTheme returns a Theme with every color disabled.
func PlainTheme() Theme {
	return Theme{
		UserMsg:   -1,
		Assistant: -1,
		ToolCall:  -1,
		Error:     -1,
		Success:   -1,
		Muted:     -1,
		Accent:    -1,
	}
}
