package pilot_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/pilot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Role(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		msg  pilot.Message
		want pilot.Role
	}{
		{"UserMessage", pilot.UserMessage{}, pilot.RoleUser},
		{"AssistantMessage", pilot.AssistantMessage{}, pilot.RoleAssistant},
		{"ToolResultMessage", pilot.ToolResultMessage{}, pilot.RoleToolResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.msg.Role())
		})
	}
}

func TestRole_Values(t *testing.T) {
	t.Parallel()
	assert.Equal(t, pilot.Role("user"), pilot.RoleUser)
	assert.Equal(t, pilot.Role("assistant"), pilot.RoleAssistant)
	assert.Equal(t, pilot.Role("tool_result"), pilot.RoleToolResult)
}

func TestNewUserMessage(t *testing.T) {
	t.Parallel()
	msg := pilot.NewUserMessage("hello")
	require.Len(t, msg.Content, 1)
	assert.Equal(t, pilot.TextBlock{Text: "hello"}, msg.Content[0])
	assert.False(t, msg.Timestamp.IsZero())
}

func TestAssistantMessage_ToolCalls(t *testing.T) {
	t.Parallel()

	t.Run("returns calls in order and skips other blocks", func(t *testing.T) {
		t.Parallel()
		msg := pilot.AssistantMessage{Content: []pilot.ContentBlock{
			pilot.ToolCallBlock{ID: "tc_1", Name: "read_file", Arguments: json.RawMessage(`{"path":"a"}`)},
			pilot.TextBlock{Text: "reading both"},
			pilot.ThinkingBlock{Thinking: "hmm"},
			pilot.ToolCallBlock{ID: "tc_2", Name: "read_file", Arguments: json.RawMessage(`{"path":"b"}`)},
		}}
		calls := msg.ToolCalls()
		require.Len(t, calls, 2)
		assert.Equal(t, "tc_1", calls[0].ID)
		assert.Equal(t, "tc_2", calls[1].ID)
	})

	t.Run("nil when text only", func(t *testing.T) {
		t.Parallel()
		msg := pilot.AssistantMessage{Content: []pilot.ContentBlock{pilot.TextBlock{Text: "hi"}}}
		assert.Nil(t, msg.ToolCalls())
	})
}

func TestAssistantMessage_Text(t *testing.T) {
	t.Parallel()
	msg := pilot.AssistantMessage{Content: []pilot.ContentBlock{
		pilot.ThinkingBlock{Thinking: "not shown"},
		pilot.TextBlock{Text: "first"},
		pilot.TextBlock{Text: ""},
		pilot.ToolCallBlock{ID: "tc_1", Name: "list_files"},
		pilot.TextBlock{Text: "second"},
	}}
	assert.Equal(t, "first\nsecond", msg.Text())
}

func TestUserMessage_Text(t *testing.T) {
	t.Parallel()
	msg := pilot.UserMessage{Content: []pilot.ContentBlock{
		pilot.TextBlock{Text: "What's in"},
		pilot.TextBlock{Text: "hello.txt?"},
	}}
	assert.Equal(t, "What's in\nhello.txt?", msg.Text())
}

func TestToolResultMessage_Text(t *testing.T) {
	t.Parallel()
	msg := pilot.ToolResultMessage{
		ToolCallID: "tc_1",
		Content:    []pilot.ContentBlock{pilot.TextBlock{Text: "a"}, pilot.TextBlock{Text: "b"}},
	}
	assert.Equal(t, "a\nb", msg.Text())
}

func TestContentBlockTypeSwitch_Exhaustive(t *testing.T) {
	t.Parallel()
	blocks := []pilot.ContentBlock{
		pilot.TextBlock{Text: "hello"},
		pilot.ThinkingBlock{Thinking: "reasoning", Signature: []byte("sig")},
		pilot.ToolCallBlock{ID: "tc_1", Name: "read_file", Arguments: json.RawMessage(`{}`)},
	}
	assert.Len(t, blocks, 3, "update slice and switch when adding new ContentBlock types")
	for _, block := range blocks {
		switch block.(type) {
		case pilot.TextBlock:
		case pilot.ThinkingBlock:
		case pilot.ToolCallBlock:
		default:
			t.Fatalf("unexpected content block type: %T", block)
		}
	}
}
