package pilot

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is a sealed interface representing one entry of the conversation
// history. The unexported marker method prevents external implementations.
type Message interface {
	isMessage()
	Role() Role
}

// UserMessage is a line of input typed by the user.
type UserMessage struct {
	Content   []ContentBlock
	Timestamp time.Time
}

func (UserMessage) isMessage() {}

// Role returns RoleUser.
func (UserMessage) Role() Role { return RoleUser }

// Text joins the message's text blocks with newlines.
func (m UserMessage) Text() string {
	return joinText(m.Content)
}

// NewUserMessage returns a UserMessage holding a single text block.
func NewUserMessage(text string) UserMessage {
	return UserMessage{
		Content:   []ContentBlock{TextBlock{Text: text}},
		Timestamp: time.Now(),
	}
}

// AssistantMessage is one response from the model. It may carry text,
// tool-call requests, or both.
type AssistantMessage struct {
	Content       []ContentBlock
	StopReason    StopReason
	RawStopReason string
	Usage         Usage
	Timestamp     time.Time
}

func (AssistantMessage) isMessage() {}

// Role returns RoleAssistant.
func (AssistantMessage) Role() Role { return RoleAssistant }

// ToolCalls returns the tool-call requests in the order the model emitted them.
func (m AssistantMessage) ToolCalls() []ToolCallBlock {
	var calls []ToolCallBlock
	for _, b := range m.Content {
		if tc, ok := b.(ToolCallBlock); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// Text joins the message's text blocks with newlines. Thinking blocks are
// not included.
func (m AssistantMessage) Text() string {
	return joinText(m.Content)
}

// ToolResultMessage carries the outcome of one tool call back to the model.
type ToolResultMessage struct {
	ToolCallID string
	ToolName   string
	Content    []ContentBlock
	IsError    bool
	Timestamp  time.Time
}

func (ToolResultMessage) isMessage() {}

// Role returns RoleToolResult.
func (ToolResultMessage) Role() Role { return RoleToolResult }

// Text joins the result's text blocks with newlines.
func (m ToolResultMessage) Text() string {
	return joinText(m.Content)
}

// ContentBlock is a sealed interface representing a block of content.
type ContentBlock interface {
	contentBlock()
}

// TextBlock contains text content.
type TextBlock struct {
	Text string
}

func (TextBlock) contentBlock() {}

// ThinkingBlock contains reasoning content. Signature is an opaque
// provider token that must be echoed back unchanged; nil when absent.
type ThinkingBlock struct {
	Thinking  string
	Signature []byte
}

func (ThinkingBlock) contentBlock() {}

// ToolCallBlock is a tool-call request from the model: a tool name and its
// arguments as a JSON object. Signature is an opaque provider token
// attached to the call, echoed back unchanged; nil when absent.
type ToolCallBlock struct {
	ID        string
	Name      string
	Arguments json.RawMessage
	Signature []byte
}

func (ToolCallBlock) contentBlock() {}

func joinText(blocks []ContentBlock) string {
	var sb strings.Builder
	for _, b := range blocks {
		tb, ok := b.(TextBlock)
		if !ok || tb.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(tb.Text)
	}
	return sb.String()
}

// Interface compliance checks.
var (
	_ Message = UserMessage{}
	_ Message = AssistantMessage{}
	_ Message = ToolResultMessage{}

	_ ContentBlock = TextBlock{}
	_ ContentBlock = ThinkingBlock{}
	_ ContentBlock = ToolCallBlock{}
)
