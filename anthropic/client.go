package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/pilot"
)

// Interface compliance check.
var _ pilot.Provider = (*Client)(nil)

// Client implements [pilot.Provider] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends the conversation to the Messages API and returns the
// model's complete reply.
func (c *Client) Generate(ctx context.Context, req pilot.Request) (pilot.AssistantMessage, error) {
	body, err := c.buildRequestBody(req)
	if err != nil {
		return pilot.AssistantMessage{}, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return pilot.AssistantMessage{}, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pilot.AssistantMessage{}, fmt.Errorf("anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pilot.AssistantMessage{}, parseHTTPError(resp)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return pilot.AssistantMessage{}, fmt.Errorf("anthropic: decode response: %w", err)
	}

	return convertResponse(apiResp), nil
}

func (c *Client) buildRequestBody(req pilot.Request) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	apiReq := apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      convertSystem(req.SystemPrompt),
		Messages:    convertMessages(req.Messages),
		Tools:       convertTools(req.Tools),
		Temperature: req.Temperature,
	}
	if len(apiReq.Tools) > 0 {
		apiReq.ToolChoice = &apiToolChoice{Type: "auto"}
	}
	injectCacheMarkers(&apiReq)

	return json.Marshal(apiReq)
}

// convertSystem converts a system prompt into content blocks. Returns nil
// when the prompt is empty.
func convertSystem(prompt string) []apiContentBlock {
	if prompt == "" {
		return nil
	}
	return []apiContentBlock{{Type: "text", Text: prompt}}
}

// injectCacheMarkers sets cache_control breakpoints on the request: the
// message window, the last system block and the last tool.
func injectCacheMarkers(req *apiRequest) {
	// cc is shared across all breakpoints; it is read-only after assignment.
	cc := &apiCacheControl{Type: "ephemeral"}

	req.CacheControl = cc
	if len(req.System) > 0 {
		req.System[len(req.System)-1].CacheControl = cc
	}
	if len(req.Tools) > 0 {
		req.Tools[len(req.Tools)-1].CacheControl = cc
	}
}

func convertMessages(msgs []pilot.Message) []apiMessage {
	var result []apiMessage
	for _, msg := range msgs {
		switch m := msg.(type) {
		case pilot.UserMessage:
			result = append(result, apiMessage{
				Role:    "user",
				Content: convertContentBlocks(m.Content),
			})
		case pilot.AssistantMessage:
			result = append(result, apiMessage{
				Role:    "assistant",
				Content: convertContentBlocks(m.Content),
			})
		case pilot.ToolResultMessage:
			block := apiContentBlock{
				Type:      "tool_result",
				ToolUseID: m.ToolCallID,
				Content:   convertContentBlocks(m.Content),
				IsError:   m.IsError,
			}
			// Merge consecutive tool results into the same user message.
			if n := len(result); n > 0 && result[n-1].Role == "user" && isToolResultMessage(result[n-1]) {
				result[n-1].Content = append(result[n-1].Content, block)
			} else {
				result = append(result, apiMessage{
					Role:    "user",
					Content: []apiContentBlock{block},
				})
			}
		}
	}
	return result
}

func isToolResultMessage(msg apiMessage) bool {
	return len(msg.Content) > 0 && msg.Content[0].Type == "tool_result"
}

// convertContentBlocks maps domain blocks to API blocks. Empty text blocks
// are dropped because the API rejects them.
func convertContentBlocks(blocks []pilot.ContentBlock) []apiContentBlock {
	result := make([]apiContentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch bl := b.(type) {
		case pilot.TextBlock:
			if bl.Text == "" {
				continue
			}
			result = append(result, apiContentBlock{Type: "text", Text: bl.Text})
		case pilot.ThinkingBlock:
			result = append(result, apiContentBlock{Type: "thinking", Thinking: bl.Thinking, Signature: string(bl.Signature)})
		case pilot.ToolCallBlock:
			input := bl.Arguments
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			result = append(result, apiContentBlock{Type: "tool_use", ID: bl.ID, Name: bl.Name, Input: input})
		}
	}
	return result
}

func convertTools(tools []pilot.Tool) []apiTool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]apiTool, len(tools))
	for i, t := range tools {
		result[i] = apiTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		}
	}
	return result
}

func convertResponse(resp apiResponse) pilot.AssistantMessage {
	msg := pilot.AssistantMessage{
		StopReason:    mapStopReason(resp.StopReason),
		RawStopReason: resp.StopReason,
		Usage: pilot.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
		Timestamp: time.Now(),
	}
	if resp.Usage.CacheReadInputTokens != nil {
		msg.Usage.CacheReadTokens = *resp.Usage.CacheReadInputTokens
	}

	for _, b := range resp.Content {
		switch b.Type {
		case "text":
			msg.Content = append(msg.Content, pilot.TextBlock{Text: b.Text})
		case "thinking":
			block := pilot.ThinkingBlock{Thinking: b.Thinking}
			if b.Signature != "" {
				block.Signature = []byte(b.Signature)
			}
			msg.Content = append(msg.Content, block)
		case "tool_use":
			args := b.Input
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			msg.Content = append(msg.Content, pilot.ToolCallBlock{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	return msg
}

func mapStopReason(raw string) pilot.StopReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return pilot.StopEndTurn
	case "max_tokens":
		return pilot.StopLength
	case "tool_use":
		return pilot.StopToolUse
	default:
		return pilot.StopUnknown
	}
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return &APIError{StatusCode: resp.StatusCode, Type: apiErr.Error.Type, Message: apiErr.Error.Message}
}
