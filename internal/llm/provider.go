package llm

import "context"

// Item type values
const (
	ItemMessage            = "message"
	ItemFunctionCall       = "function_call"
	ItemFunctionCallOutput = "function_call_output"
)

// Item is one wire entry of conversation input: a chat message, a tool call
// the model emitted, or a tool result produced locally.
type Item struct {
	Type      string // "message", "function_call", "function_call_output"
	Role      string // for messages: "system", "user", "assistant"
	Content   string // message text
	CallID    string // correlates a function_call with its output
	Name      string // tool name for function_call items
	Arguments string // raw JSON arguments for function_call items
	Output    string // result payload for function_call_output items
}

// ToolDef is a tool definition in the wire format the model API expects
type ToolDef struct {
	Type        string         `json:"type"` // "function"
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	CallID    string
	Name      string
	Arguments string // raw JSON string as emitted by the model
}

// Request carries one conversation round to a model endpoint.
//
// Both endpoint modes are served from the same request: a stateful provider
// consumes PreviousID plus Input, a stateless provider resends History.
type Request struct {
	// PreviousID is the continuation token from the prior response.
	// Empty on the first round. Stateless providers ignore it.
	PreviousID string

	// Input holds only the items added since the prior response.
	Input []Item

	// History holds the full transcript, for providers that resend it.
	History []Item

	// Tools is the translated tool definition list.
	Tools []ToolDef
}

// Response is the model's answer to one request: a continuation token,
// optional final text, and zero or more pending tool calls.
type Response struct {
	ID        string
	Text      string
	ToolCalls []ToolCall
}

// Provider is the interface for model endpoints
type Provider interface {
	// CreateResponse sends one conversation round and returns the model's response
	CreateResponse(ctx context.Context, req *Request) (*Response, error)

	// ModelName returns the model being used
	ModelName() string
}
