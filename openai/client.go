package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fwojciec/pilot"
	"github.com/google/uuid"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Interface compliance check.
var _ pilot.Provider = (*Client)(nil)

// Client implements [pilot.Provider] for the OpenAI Chat Completions API.
type Client struct {
	client sdk.Client
	model  string
}

type config struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*config)

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithBaseURL sets the API base URL, e.g. for OpenAI-compatible servers or
// httptest.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// New creates a new OpenAI [Client]. SDK retries are disabled; a failed call
// is reported to the caller as is.
func New(apiKey string, opts ...Option) *Client {
	cfg := config{model: defaultModel}
	for _, o := range opts {
		o(&cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Client{client: sdk.NewClient(reqOpts...), model: cfg.model}
}

// Generate sends the conversation as one chat completion request and
// returns the first choice.
func (c *Client) Generate(ctx context.Context, req pilot.Request) (pilot.AssistantMessage, error) {
	completion, err := c.client.Chat.Completions.New(ctx, c.buildParams(req))
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return pilot.AssistantMessage{}, fmt.Errorf("openai: HTTP %d: %s: %w", apiErr.StatusCode, apiErr.Message, err)
		}
		return pilot.AssistantMessage{}, fmt.Errorf("openai: %w", err)
	}
	return ConvertResponse(completion)
}

func (c *Client) buildParams(req pilot.Request) sdk.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := sdk.ChatCompletionNewParams{
		Model:               shared.ChatModel(model),
		Messages:            ConvertMessages(req.SystemPrompt, req.Messages),
		MaxCompletionTokens: sdk.Int(int64(maxTokens)),
	}
	if tools := ConvertTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
		params.ToolChoice = sdk.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: sdk.String(string(sdk.ChatCompletionToolChoiceOptionAutoAuto)),
		}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	return params
}

// ConvertMessages converts the system prompt and pilot Messages to chat
// completion messages. Each tool result becomes its own tool-role message.
// Exported for testing.
func ConvertMessages(system string, msgs []pilot.Message) []sdk.ChatCompletionMessageParamUnion {
	result := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		result = append(result, sdk.SystemMessage(system))
	}
	for _, msg := range msgs {
		switch m := msg.(type) {
		case pilot.UserMessage:
			result = append(result, sdk.UserMessage(m.Text()))
		case pilot.AssistantMessage:
			result = append(result, convertAssistant(m))
		case pilot.ToolResultMessage:
			result = append(result, sdk.ToolMessage(m.Text(), m.ToolCallID))
		}
	}
	return result
}

func convertAssistant(m pilot.AssistantMessage) sdk.ChatCompletionMessageParamUnion {
	param := sdk.ChatCompletionAssistantMessageParam{}
	if text := m.Text(); text != "" {
		param.Content = sdk.ChatCompletionAssistantMessageParamContentUnion{OfString: sdk.String(text)}
	}
	for _, call := range m.ToolCalls() {
		args := string(call.Arguments)
		if args == "" {
			args = "{}"
		}
		param.ToolCalls = append(param.ToolCalls, sdk.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: sdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: args,
			},
		})
	}
	return sdk.ChatCompletionMessageParamUnion{OfAssistant: &param}
}

// ConvertTools converts pilot Tools to chat completion function tools.
// Exported for testing.
func ConvertTools(tools []pilot.Tool) []sdk.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]sdk.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		// Parameters is json.RawMessage, always valid JSON from domain types.
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		fn := shared.FunctionDefinitionParam{
			Name:       t.Name,
			Parameters: shared.FunctionParameters(schema),
		}
		if t.Description != "" {
			fn.Description = sdk.String(t.Description)
		}
		result[i] = sdk.ChatCompletionToolParam{Function: fn}
	}
	return result
}

// ConvertResponse converts the first choice of a completion into an
// assistant message.
// Exported for testing.
func ConvertResponse(completion *sdk.ChatCompletion) (pilot.AssistantMessage, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return pilot.AssistantMessage{}, errors.New("openai: response has no choices")
	}
	choice := completion.Choices[0]

	msg := pilot.AssistantMessage{
		StopReason:    mapFinishReason(choice.FinishReason),
		RawStopReason: choice.FinishReason,
		Usage: pilot.Usage{
			InputTokens:     int(completion.Usage.PromptTokens),
			OutputTokens:    int(completion.Usage.CompletionTokens),
			CacheReadTokens: int(completion.Usage.PromptTokensDetails.CachedTokens),
		},
		Timestamp: time.Now(),
	}

	if choice.Message.Content != "" {
		msg.Content = append(msg.Content, pilot.TextBlock{Text: choice.Message.Content})
	} else if choice.Message.Refusal != "" {
		msg.Content = append(msg.Content, pilot.TextBlock{Text: choice.Message.Refusal})
	}
	for _, tc := range choice.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		// Some compatible servers omit call IDs; results must still correlate.
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		msg.Content = append(msg.Content, pilot.ToolCallBlock{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return msg, nil
}

func mapFinishReason(reason string) pilot.StopReason {
	switch reason {
	case "stop":
		return pilot.StopEndTurn
	case "length":
		return pilot.StopLength
	case "tool_calls", "function_call":
		return pilot.StopToolUse
	case "content_filter":
		return pilot.StopError
	default:
		return pilot.StopUnknown
	}
}
