package pilot

import "time"

// Conversation is the ordered message history of one run. It is owned by a
// single loop and never shared between goroutines.
type Conversation struct {
	ID           string
	SystemPrompt string
	Messages     []Message
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewConversation returns an empty conversation.
func NewConversation(id, systemPrompt string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:           id,
		SystemPrompt: systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Append adds messages to the end of the history.
func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
	c.UpdatedAt = time.Now()
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Truncate drops every message after the first n. It is used to discard a
// turn that failed part way so the history stays well formed. Values of n
// outside [0, Len()] are clamped.
func (c *Conversation) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(c.Messages) {
		return
	}
	clear(c.Messages[n:])
	c.Messages = c.Messages[:n]
	c.UpdatedAt = time.Now()
}

// Reset drops the whole history but keeps the ID and system prompt.
func (c *Conversation) Reset() {
	c.Truncate(0)
}

// LastAssistantText returns the text of the most recent assistant message,
// or "" when there is none.
func (c *Conversation) LastAssistantText() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if am, ok := c.Messages[i].(AssistantMessage); ok {
			return am.Text()
		}
	}
	return ""
}
