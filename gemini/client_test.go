package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/pilot"
	"github.com/fwojciec/pilot/gemini"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertMessages_UserMessage(t *testing.T) {
	t.Parallel()
	msgs := []pilot.Message{
		pilot.UserMessage{Content: []pilot.ContentBlock{pilot.TextBlock{Text: "Hello"}}},
	}
	got := gemini.ConvertMessages(msgs)
	require.Len(t, got, 1)
	assert.Equal(t, "user", got[0].Role)
	require.Len(t, got[0].Parts, 1)
	assert.Equal(t, "Hello", got[0].Parts[0].Text)
}

func TestConvertMessages_AssistantMessage(t *testing.T) {
	t.Parallel()
	msgs := []pilot.Message{
		pilot.AssistantMessage{Content: []pilot.ContentBlock{
			pilot.TextBlock{Text: "Let me help."},
		}},
	}
	got := gemini.ConvertMessages(msgs)
	require.Len(t, got, 1)
	assert.Equal(t, "model", got[0].Role)
	require.Len(t, got[0].Parts, 1)
	assert.Equal(t, "Let me help.", got[0].Parts[0].Text)
}

func TestConvertMessages_ThinkingWithSignature(t *testing.T) {
	t.Parallel()
	msgs := []pilot.Message{
		pilot.AssistantMessage{Content: []pilot.ContentBlock{
			pilot.ThinkingBlock{Thinking: "reasoning", Signature: []byte("thought-sig-data")},
			pilot.TextBlock{Text: "Answer"},
		}},
	}
	got := gemini.ConvertMessages(msgs)
	require.Len(t, got, 1)
	require.Len(t, got[0].Parts, 2)
	assert.Equal(t, "reasoning", got[0].Parts[0].Text)
	assert.True(t, got[0].Parts[0].Thought)
	assert.Equal(t, []byte("thought-sig-data"), got[0].Parts[0].ThoughtSignature)
	assert.Equal(t, "Answer", got[0].Parts[1].Text)
}

func TestConvertMessages_ToolCallAndResult(t *testing.T) {
	t.Parallel()
	msgs := []pilot.Message{
		pilot.AssistantMessage{Content: []pilot.ContentBlock{
			pilot.ToolCallBlock{ID: "call_123", Name: "read_file", Arguments: json.RawMessage(`{"path":"foo.go"}`), Signature: []byte("fc-sig")},
		}},
		pilot.ToolResultMessage{
			ToolCallID: "call_123",
			ToolName:   "read_file",
			Content:    []pilot.ContentBlock{pilot.TextBlock{Text: "file contents"}},
		},
	}
	got := gemini.ConvertMessages(msgs)
	require.Len(t, got, 2)

	assert.Equal(t, "model", got[0].Role)
	require.Len(t, got[0].Parts, 1)
	require.NotNil(t, got[0].Parts[0].FunctionCall)
	assert.Equal(t, "call_123", got[0].Parts[0].FunctionCall.ID)
	assert.Equal(t, "read_file", got[0].Parts[0].FunctionCall.Name)
	assert.Equal(t, "foo.go", got[0].Parts[0].FunctionCall.Args["path"])
	assert.Equal(t, []byte("fc-sig"), got[0].Parts[0].ThoughtSignature)

	assert.Equal(t, "user", got[1].Role)
	require.Len(t, got[1].Parts, 1)
	require.NotNil(t, got[1].Parts[0].FunctionResponse)
	assert.Equal(t, "call_123", got[1].Parts[0].FunctionResponse.ID)
	assert.Equal(t, "read_file", got[1].Parts[0].FunctionResponse.Name)
	assert.Equal(t, "file contents", got[1].Parts[0].FunctionResponse.Response["output"])
}

func TestConvertMessages_ToolResultsMerged(t *testing.T) {
	t.Parallel()
	msgs := []pilot.Message{
		pilot.AssistantMessage{Content: []pilot.ContentBlock{
			pilot.ToolCallBlock{ID: "a", Name: "read_file", Arguments: json.RawMessage(`{}`)},
			pilot.ToolCallBlock{ID: "b", Name: "list_files", Arguments: json.RawMessage(`{}`)},
		}},
		pilot.ToolResultMessage{ToolCallID: "a", ToolName: "read_file", Content: []pilot.ContentBlock{pilot.TextBlock{Text: "1"}}},
		pilot.ToolResultMessage{ToolCallID: "b", ToolName: "list_files", Content: []pilot.ContentBlock{pilot.TextBlock{Text: "2"}}},
		pilot.NewUserMessage("next"),
	}
	got := gemini.ConvertMessages(msgs)
	require.Len(t, got, 3)
	require.Len(t, got[1].Parts, 2)
	assert.Equal(t, "a", got[1].Parts[0].FunctionResponse.ID)
	assert.Equal(t, "b", got[1].Parts[1].FunctionResponse.ID)
	assert.Equal(t, "next", got[2].Parts[0].Text)
}

func TestConvertMessages_ToolResultError(t *testing.T) {
	t.Parallel()
	msgs := []pilot.Message{
		pilot.ToolResultMessage{
			ToolCallID: "call_err",
			ToolName:   "read_file",
			Content:    []pilot.ContentBlock{pilot.TextBlock{Text: "permission denied"}},
			IsError:    true,
		},
	}
	got := gemini.ConvertMessages(msgs)
	require.Len(t, got, 1)

	resp := got[0].Parts[0].FunctionResponse
	assert.Equal(t, "call_err", resp.ID)
	assert.Equal(t, "permission denied", resp.Response["error"])
	assert.Nil(t, resp.Response["output"])
}

func TestConvertTools(t *testing.T) {
	t.Parallel()
	tools := []pilot.Tool{
		{Name: "read_file", Description: "Read a file", Parameters: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`)},
		{Name: "list_files", Description: "List files", Parameters: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}}}`)},
	}
	got := gemini.ConvertTools(tools)
	require.Len(t, got, 1) // single genai.Tool with multiple declarations
	require.Len(t, got[0].FunctionDeclarations, 2)
	assert.Equal(t, "read_file", got[0].FunctionDeclarations[0].Name)
	assert.Equal(t, "Read a file", got[0].FunctionDeclarations[0].Description)
	assert.Equal(t, "list_files", got[0].FunctionDeclarations[1].Name)

	schema, ok := got[0].FunctionDeclarations[0].ParametersJsonSchema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
}

func TestConvertTools_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, gemini.ConvertTools(nil))
}

func TestConvertResponse(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		msg, err := gemini.ConvertResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "Hello"}}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:        10,
				CandidatesTokenCount:    5,
				CachedContentTokenCount: 2,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello", msg.Text())
		assert.Equal(t, pilot.StopEndTurn, msg.StopReason)
		assert.Equal(t, "STOP", msg.RawStopReason)
		assert.Equal(t, pilot.Usage{InputTokens: 10, OutputTokens: 5, CacheReadTokens: 2}, msg.Usage)
	})

	t.Run("function call with thought", func(t *testing.T) {
		t.Parallel()
		msg, err := gemini.ConvertResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "plan", Thought: true, ThoughtSignature: []byte("sig")},
					{FunctionCall: &genai.FunctionCall{ID: "fc_1", Name: "read_file", Args: map[string]any{"path": "hello.txt"}}},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, pilot.StopToolUse, msg.StopReason)
		require.Len(t, msg.Content, 2)
		assert.Equal(t, pilot.ThinkingBlock{Thinking: "plan", Signature: []byte("sig")}, msg.Content[0])

		calls := msg.ToolCalls()
		require.Len(t, calls, 1)
		assert.Equal(t, "fc_1", calls[0].ID)
		assert.JSONEq(t, `{"path":"hello.txt"}`, string(calls[0].Arguments))
	})

	t.Run("function call without ID gets a UUID", func(t *testing.T) {
		t.Parallel()
		msg, err := gemini.ConvertResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: "list_files"}},
				}},
			}},
		})
		require.NoError(t, err)
		calls := msg.ToolCalls()
		require.Len(t, calls, 1)
		_, err = uuid.Parse(calls[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, json.RawMessage(`{}`), calls[0].Arguments)
	})

	t.Run("max tokens", func(t *testing.T) {
		t.Parallel()
		msg, err := gemini.ConvertResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "trunc"}}},
				FinishReason: genai.FinishReasonMaxTokens,
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, pilot.StopLength, msg.StopReason)
	})

	t.Run("prompt blocked", func(t *testing.T) {
		t.Parallel()
		_, err := gemini.ConvertResponse(&genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
				BlockReason: genai.BlockedReasonSafety,
			},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prompt blocked: SAFETY")
	})

	t.Run("unmarshalable arguments", func(t *testing.T) {
		t.Parallel()
		_, err := gemini.ConvertResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{ID: "tc_bad", Name: "read_file", Args: map[string]any{"val": math.NaN()}}},
				}},
			}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gemini: invalid tool call arguments")
	})
}

func TestClient_Generate(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Hi from Gemini"}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 3}
		}`))
	}))
	defer srv.Close()

	client, err := gemini.New(context.Background(), "test-key",
		gemini.WithBaseURL(srv.URL),
		gemini.WithModel("gemini-test"),
	)
	require.NoError(t, err)

	temp := 0.2
	msg, err := client.Generate(context.Background(), pilot.Request{
		SystemPrompt: "be brief",
		Messages:     []pilot.Message{pilot.NewUserMessage("Hello")},
		Tools:        []pilot.Tool{{Name: "read_file", Parameters: json.RawMessage(`{"type":"object"}`)}},
		Temperature:  &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi from Gemini", msg.Text())
	assert.Equal(t, pilot.Usage{InputTokens: 4, OutputTokens: 3}, msg.Usage)

	assert.True(t, strings.HasSuffix(path, "models/gemini-test:generateContent"), path)
	require.NotNil(t, captured)
	assert.Contains(t, captured, "systemInstruction")
	assert.Contains(t, captured, "tools")
	contents := captured["contents"].([]any)
	require.Len(t, contents, 1)
}

func TestClient_GenerateError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	client, err := gemini.New(context.Background(), "bad-key", gemini.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), pilot.Request{
		Messages: []pilot.Message{pilot.NewUserMessage("Hello")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini:")
	assert.Contains(t, err.Error(), "API key not valid")
}
