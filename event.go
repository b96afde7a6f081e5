package pilot

// Event is a sealed interface for progress notifications emitted by the
// conversation loop while it works through a user turn.
type Event interface {
	event()
}

// EventAssistantMessage is emitted after every model response, including
// responses that only request tools.
type EventAssistantMessage struct {
	Message AssistantMessage
}

func (EventAssistantMessage) event() {}

// EventToolCall is emitted right before a tool is executed.
type EventToolCall struct {
	Call ToolCallBlock
}

func (EventToolCall) event() {}

// EventToolResult is emitted after a tool finished. Content holds the text
// blocks of the result joined by newlines.
type EventToolResult struct {
	ID       string
	ToolName string
	Content  string
	IsError  bool
}

func (EventToolResult) event() {}

// Interface compliance checks.
var (
	_ Event = EventAssistantMessage{}
	_ Event = EventToolCall{}
	_ Event = EventToolResult{}
)
