package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bazlabs/baz/internal/config"
)

// OpenAI implements Provider using the OpenAI Responses API in stateful
// continuation mode: each request sends previous_response_id plus only the
// items added since, and the server retains the rest of the conversation.
type OpenAI struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	client  *http.Client
}

// Responses API request/response types
type responsesRequest struct {
	Model              string           `json:"model"`
	PreviousResponseID string           `json:"previous_response_id,omitempty"`
	Input              []map[string]any `json:"input"`
	Tools              []ToolDef        `json:"tools,omitempty"`
}

type responsesResponse struct {
	ID     string `json:"id"`
	Output []struct {
		Type    string `json:"type"`
		ID      string `json:"id"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		CallID    string `json:"call_id"`
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"output"`
	Error *openAIError `json:"error"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// NewOpenAI creates a new OpenAI provider
func NewOpenAI(model string) *OpenAI {
	return NewOpenAIWithKey(config.GetOpenAIKey(), model)
}

// NewOpenAIWithKey creates a new OpenAI provider with explicit API key
func NewOpenAIWithKey(apiKey, model string) *OpenAI {
	return &OpenAI{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.openai.com/v1",
		Timeout: 2 * time.Minute,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// convertInput converts wire items to the Responses API input format
func (o *OpenAI) convertInput(items []Item) []map[string]any {
	result := make([]map[string]any, 0, len(items))
	for _, item := range items {
		switch item.Type {
		case ItemMessage:
			result = append(result, map[string]any{
				"role":    item.Role,
				"content": item.Content,
			})
		case ItemFunctionCall:
			// Only sent when replaying history; in continuation mode the
			// server already holds the calls it emitted.
			result = append(result, map[string]any{
				"type":      "function_call",
				"call_id":   item.CallID,
				"name":      item.Name,
				"arguments": item.Arguments,
			})
		case ItemFunctionCallOutput:
			result = append(result, map[string]any{
				"type":    "function_call_output",
				"call_id": item.CallID,
				"output":  item.Output,
			})
		}
	}
	return result
}

// CreateResponse sends one round to the Responses API
func (o *OpenAI) CreateResponse(ctx context.Context, r *Request) (*Response, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured. Use 'baz config set openai <key>' or set BAZ_OPENAI_API_KEY")
	}

	reqBody := responsesRequest{
		Model:              o.Model,
		PreviousResponseID: r.PreviousID,
		Input:              o.convertInput(r.Input),
		Tools:              r.Tools,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/responses", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &EndpointError{Provider: "OpenAI", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EndpointError{Provider: "OpenAI", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &EndpointError{Provider: "OpenAI", Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var apiResp responsesResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &EndpointError{Provider: "OpenAI", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if apiResp.Error != nil {
		return nil, &EndpointError{Provider: "OpenAI", Message: apiResp.Error.Message}
	}

	out := &Response{ID: apiResp.ID}
	var text strings.Builder
	for _, item := range apiResp.Output {
		switch item.Type {
		case "function_call":
			if item.Name == "" {
				continue
			}
			callID := item.CallID
			if callID == "" {
				callID = item.ID
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				CallID:    callID,
				Name:      item.Name,
				Arguments: item.Arguments,
			})
		case "message":
			for _, part := range item.Content {
				if part.Type == "output_text" {
					text.WriteString(part.Text)
				}
			}
		}
	}
	out.Text = text.String()

	return out, nil
}

// ModelName returns the model being used
func (o *OpenAI) ModelName() string {
	return o.Model
}

// Ensure OpenAI implements Provider
var _ Provider = (*OpenAI)(nil)
