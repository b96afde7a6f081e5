package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fwojciec/pilot"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ pilot.Provider = (*Client)(nil)

// Client implements [pilot.Provider] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

type config struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*config)

// WithModel sets the model ID. Default is gemini-3.1-pro-preview.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	cfg := config{model: defaultModel}
	for _, o := range opts {
		o(&cfg)
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Client{client: gc, model: cfg.model}, nil
}

// Generate sends the conversation to the Gemini API and returns the model's
// complete reply.
func (c *Client) Generate(ctx context.Context, req pilot.Request) (pilot.AssistantMessage, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, ConvertMessages(req.Messages), buildConfig(req))
	if err != nil {
		return pilot.AssistantMessage{}, fmt.Errorf("gemini: %w", err)
	}
	return ConvertResponse(resp)
}

func buildConfig(req pilot.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           ConvertTools(req.Tools),
	}
	if len(config.Tools) > 0 {
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		}
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertMessages converts pilot Messages to genai Contents.
// Exported for testing.
func ConvertMessages(msgs []pilot.Message) []*genai.Content {
	var result []*genai.Content
	for _, msg := range msgs {
		switch m := msg.(type) {
		case pilot.UserMessage:
			result = append(result, &genai.Content{
				Role:  genai.RoleUser,
				Parts: convertParts(m.Content),
			})
		case pilot.AssistantMessage:
			result = append(result, &genai.Content{
				Role:  genai.RoleModel,
				Parts: convertParts(m.Content),
			})
		case pilot.ToolResultMessage:
			var responseMap map[string]any
			if m.IsError {
				responseMap = map[string]any{"error": m.Text()}
			} else {
				responseMap = map[string]any{"output": m.Text()}
			}
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     m.ToolName,
					Response: responseMap,
				},
			}
			// Merge consecutive tool results into one user turn.
			if n := len(result); n > 0 && isFunctionResponseContent(result[n-1]) {
				result[n-1].Parts = append(result[n-1].Parts, part)
				continue
			}
			result = append(result, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{part},
			})
		}
	}
	return result
}

func isFunctionResponseContent(c *genai.Content) bool {
	return c.Role == genai.RoleUser && len(c.Parts) > 0 && c.Parts[0].FunctionResponse != nil
}

func convertParts(blocks []pilot.ContentBlock) []*genai.Part {
	var parts []*genai.Part
	for _, b := range blocks {
		switch bl := b.(type) {
		case pilot.TextBlock:
			parts = append(parts, &genai.Part{Text: bl.Text})
		case pilot.ThinkingBlock:
			p := &genai.Part{Text: bl.Thinking, Thought: true}
			if bl.Signature != nil {
				p.ThoughtSignature = bl.Signature
			}
			parts = append(parts, p)
		case pilot.ToolCallBlock:
			// Arguments is json.RawMessage, always valid JSON from domain types.
			var args map[string]any
			_ = json.Unmarshal(bl.Arguments, &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   bl.ID,
					Name: bl.Name,
					Args: args,
				},
				ThoughtSignature: bl.Signature,
			})
		}
	}
	return parts
}

// ConvertTools converts pilot Tools to genai Tools.
// Exported for testing.
func ConvertTools(tools []pilot.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		// Parameters is json.RawMessage, always valid JSON from domain types.
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schema,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// ConvertResponse converts the first candidate of a genai response into an
// assistant message. Function calls without an ID are assigned a UUID so
// their results can be correlated.
// Exported for testing.
func ConvertResponse(resp *genai.GenerateContentResponse) (pilot.AssistantMessage, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		reason := "no candidates"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return pilot.AssistantMessage{}, fmt.Errorf("gemini: %s", reason)
	}

	cand := resp.Candidates[0]
	msg := pilot.AssistantMessage{
		RawStopReason: string(cand.FinishReason),
		Timestamp:     time.Now(),
	}
	if u := resp.UsageMetadata; u != nil {
		msg.Usage = pilot.Usage{
			InputTokens:     int(u.PromptTokenCount),
			OutputTokens:    int(u.CandidatesTokenCount),
			CacheReadTokens: int(u.CachedContentTokenCount),
		}
	}

	hasToolCall := false
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			switch {
			case p.FunctionCall != nil:
				call, err := convertFunctionCall(p)
				if err != nil {
					return pilot.AssistantMessage{}, err
				}
				hasToolCall = true
				msg.Content = append(msg.Content, call)
			case p.Thought:
				msg.Content = append(msg.Content, pilot.ThinkingBlock{Thinking: p.Text, Signature: p.ThoughtSignature})
			case p.Text != "":
				msg.Content = append(msg.Content, pilot.TextBlock{Text: p.Text})
			}
		}
	}

	msg.StopReason = mapFinishReason(cand.FinishReason, hasToolCall)
	return msg, nil
}

func convertFunctionCall(p *genai.Part) (pilot.ToolCallBlock, error) {
	fc := p.FunctionCall
	id := fc.ID
	if id == "" {
		id = uuid.NewString()
	}
	args := json.RawMessage(`{}`)
	if len(fc.Args) > 0 {
		data, err := json.Marshal(fc.Args)
		if err != nil {
			return pilot.ToolCallBlock{}, fmt.Errorf("gemini: invalid tool call arguments for %s: %w", fc.Name, err)
		}
		args = data
	}
	return pilot.ToolCallBlock{ID: id, Name: fc.Name, Arguments: args, Signature: p.ThoughtSignature}, nil
}

// mapFinishReason maps Gemini finish reasons. Gemini reports STOP for turns
// that end in function calls, so tool use is inferred from the content.
func mapFinishReason(reason genai.FinishReason, hasToolCall bool) pilot.StopReason {
	switch {
	case hasToolCall:
		return pilot.StopToolUse
	case reason == genai.FinishReasonStop:
		return pilot.StopEndTurn
	case reason == genai.FinishReasonMaxTokens:
		return pilot.StopLength
	case reason == genai.FinishReasonSafety, reason == genai.FinishReasonMalformedFunctionCall:
		return pilot.StopError
	default:
		return pilot.StopUnknown
	}
}
