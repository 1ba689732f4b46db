package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bazlabs/baz/internal/config"
)

// OpenRouter implements Provider using the OpenRouter Chat Completions API
// in stateless full-resend mode: every request carries the whole transcript,
// converted to chat messages with native tool calling.
type OpenRouter struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	client  *http.Client
}

// Chat Completions request/response types
type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

// chatMessage uses *string for Content so assistant messages that carry only
// tool calls serialize with a null content field.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // "function"
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role      string         `json:"role"`
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *openAIError `json:"error"`
}

// NewOpenRouter creates a new OpenRouter provider
func NewOpenRouter(model string) *OpenRouter {
	return NewOpenRouterWithKey(config.GetOpenRouterKey(), model)
}

// NewOpenRouterWithKey creates a new OpenRouter provider with explicit API key
func NewOpenRouterWithKey(apiKey, model string) *OpenRouter {
	return &OpenRouter{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
		Timeout: 2 * time.Minute,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// convertHistory converts the full transcript to chat messages. Consecutive
// function_call items collapse into one assistant message with tool_calls;
// function_call_output items become tool-role messages.
func (o *OpenRouter) convertHistory(items []Item) []chatMessage {
	messages := make([]chatMessage, 0, len(items))
	for _, item := range items {
		switch item.Type {
		case ItemMessage:
			content := item.Content
			messages = append(messages, chatMessage{Role: item.Role, Content: &content})
		case ItemFunctionCall:
			tc := chatToolCall{ID: item.CallID, Type: "function"}
			tc.Function.Name = item.Name
			tc.Function.Arguments = item.Arguments
			if n := len(messages); n > 0 && messages[n-1].Role == "assistant" && len(messages[n-1].ToolCalls) > 0 {
				messages[n-1].ToolCalls = append(messages[n-1].ToolCalls, tc)
			} else {
				messages = append(messages, chatMessage{Role: "assistant", ToolCalls: []chatToolCall{tc}})
			}
		case ItemFunctionCallOutput:
			output := item.Output
			messages = append(messages, chatMessage{Role: "tool", Content: &output, ToolCallID: item.CallID})
		}
	}
	return messages
}

// convertTools converts wire tool definitions to the nested chat format
func (o *OpenRouter) convertTools(tools []ToolDef) []chatTool {
	result := make([]chatTool, 0, len(tools))
	for _, t := range tools {
		result = append(result, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

// CreateResponse resends the full transcript and returns the model's response
func (o *OpenRouter) CreateResponse(ctx context.Context, r *Request) (*Response, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key not configured. Use 'baz config set openrouter <key>' or set OPENROUTER_API_KEY")
	}

	reqBody := chatRequest{
		Model:    o.Model,
		Messages: o.convertHistory(r.History),
	}
	if len(r.Tools) > 0 {
		reqBody.Tools = o.convertTools(r.Tools)
		reqBody.ToolChoice = "auto"
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("HTTP-Referer", "https://github.com/bazlabs/baz")
	req.Header.Set("X-Title", "Baz")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &EndpointError{Provider: "OpenRouter", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EndpointError{Provider: "OpenRouter", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &EndpointError{Provider: "OpenRouter", Status: resp.StatusCode, Message: string(body)}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &EndpointError{Provider: "OpenRouter", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if apiResp.Error != nil {
		return nil, &EndpointError{Provider: "OpenRouter", Message: apiResp.Error.Message}
	}

	if len(apiResp.Choices) == 0 {
		return nil, &EndpointError{Provider: "OpenRouter", Message: "no response choices returned"}
	}

	choice := apiResp.Choices[0]
	out := &Response{ID: apiResp.ID, Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return out, nil
}

// ModelName returns the model being used
func (o *OpenRouter) ModelName() string {
	return o.Model
}

// Ensure OpenRouter implements Provider
var _ Provider = (*OpenRouter)(nil)
