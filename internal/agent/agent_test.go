package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bazlabs/baz/internal/llm"
	"github.com/bazlabs/baz/internal/tools"
)

// scriptedProvider replays a fixed sequence of responses and records every
// request it receives
type scriptedProvider struct {
	responses []*llm.Response
	errs      []error
	requests  []*llm.Request
}

func (p *scriptedProvider) CreateResponse(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	// Snapshot the request; the agent reuses its buffers between rounds.
	saved := &llm.Request{
		PreviousID: req.PreviousID,
		Input:      append([]llm.Item(nil), req.Input...),
		History:    append([]llm.Item(nil), req.History...),
		Tools:      req.Tools,
	}
	p.requests = append(p.requests, saved)

	i := len(p.requests) - 1
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return &llm.Response{ID: fmt.Sprintf("resp_%d", i+1), Text: "final response"}, nil
}

func (p *scriptedProvider) ModelName() string { return "scripted" }

// recordingHandler captures event callbacks
type recordingHandler struct {
	thinking    int
	toolCalls   []string
	toolResults []string
}

func (h *recordingHandler) OnThinking()                { h.thinking++ }
func (h *recordingHandler) OnToolCall(name, _ string)  { h.toolCalls = append(h.toolCalls, name) }
func (h *recordingHandler) OnToolResult(name string, _ tools.Result) {
	h.toolResults = append(h.toolResults, name)
}

// testRegistry returns deterministic stand-ins for the random tools
func testRegistry(colorSequence ...string) *tools.Registry {
	reg := tools.NewRegistry()

	idx := 0
	reg.Register(tools.NewFuncTool(tools.Definition{
		Name:        "random_color",
		Description: "Select and return a random color",
		Parameters:  &tools.JSONSchema{Type: "object"},
	}, func(ctx context.Context, args map[string]any) (any, error) {
		if idx < len(colorSequence) {
			c := colorSequence[idx]
			idx++
			return c, nil
		}
		return "red", nil
	}))

	reg.Register(tools.NewFuncTool(tools.Definition{
		Name:        "random_number",
		Description: "Select and return a random integer",
		Parameters:  &tools.JSONSchema{Type: "object"},
	}, func(ctx context.Context, args map[string]any) (any, error) {
		return 27, nil
	}))

	return reg
}

const testPrompt = "You are a helpful assistant named Baz."

func TestNew(t *testing.T) {
	provider := &scriptedProvider{}
	ag, err := New(provider, testRegistry(), testPrompt)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ag.ID() == "" {
		t.Error("New() should assign a conversation id")
	}
	if ag.transcript.Len() != 0 {
		t.Errorf("New() transcript should be empty, has %d turns", ag.transcript.Len())
	}
	if len(ag.wireTools) != 2 {
		t.Errorf("New() translated %d tools, want 2", len(ag.wireTools))
	}
}

func TestNew_SchemaErrorAtBootstrap(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(tools.NewFuncTool(tools.Definition{
		Name: "bad",
		Parameters: &tools.JSONSchema{
			Type: "object",
			Properties: map[string]*tools.JSONSchema{
				"items": {Type: "array"},
			},
		},
	}, func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }))

	_, err := New(&scriptedProvider{}, reg, testPrompt)

	var schemaErr *tools.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("New() error = %T, want *tools.SchemaError", err)
	}
}

func TestChat_SimpleResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", Text: "Hey! How can I help?"},
	}}
	ag, err := New(provider, testRegistry(), testPrompt)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := ag.Chat(context.Background(), "Hey!")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Response != "Hey! How can I help?" {
		t.Errorf("Chat().Response = %q", result.Response)
	}
	if len(result.ToolCalls) != 0 {
		t.Errorf("Chat() should have no tool calls, got %d", len(result.ToolCalls))
	}

	turns := ag.History()
	if len(turns) != 2 {
		t.Fatalf("transcript has %d turns, want 2", len(turns))
	}
	if turns[0].Kind != TurnUser || turns[0].Text != "Hey!" {
		t.Errorf("turns[0] = %+v, want user %q", turns[0], "Hey!")
	}
	if turns[1].Kind != TurnAssistant || turns[1].Text != "Hey! How can I help?" {
		t.Errorf("turns[1] = %+v, want assistant reply", turns[1])
	}
}

func TestChat_FirstRequestCarriesSystemPrompt(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", Text: "hi"},
	}}
	ag, _ := New(provider, testRegistry(), testPrompt)

	if _, err := ag.Chat(context.Background(), "hello"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	req := provider.requests[0]
	if req.PreviousID != "" {
		t.Errorf("first request PreviousID = %q, want empty", req.PreviousID)
	}
	if len(req.Input) != 2 {
		t.Fatalf("first request has %d input items, want 2 (system, user)", len(req.Input))
	}
	if req.Input[0].Role != "system" || req.Input[0].Content != testPrompt {
		t.Errorf("Input[0] = %+v, want system prompt", req.Input[0])
	}
	if req.Input[1].Role != "user" || req.Input[1].Content != "hello" {
		t.Errorf("Input[1] = %+v, want user message", req.Input[1])
	}
	if len(req.Tools) != 2 {
		t.Errorf("first request carries %d tools, want 2", len(req.Tools))
	}
	if req.History[0].Role != "system" {
		t.Errorf("History[0].Role = %q, want system", req.History[0].Role)
	}
}

func TestChat_SingleToolCall(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", ToolCalls: []llm.ToolCall{
			{CallID: "call_1", Name: "random_color", Arguments: "{}"},
		}},
		{ID: "resp_2", Text: "Your color is red!"},
	}}
	ag, _ := New(provider, testRegistry("red"), testPrompt)

	result, err := ag.Chat(context.Background(), "Can I get a color please")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Response != "Your color is red!" {
		t.Errorf("Chat().Response = %q", result.Response)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Output != "red" {
		t.Errorf("Chat().ToolCalls = %+v, want one call returning red", result.ToolCalls)
	}

	// Four-turn sequence: user, tool call, tool result, assistant.
	turns := ag.History()
	wantKinds := []TurnKind{TurnUser, TurnToolCall, TurnToolResult, TurnAssistant}
	if len(turns) != len(wantKinds) {
		t.Fatalf("transcript has %d turns, want %d", len(turns), len(wantKinds))
	}
	for i, want := range wantKinds {
		if turns[i].Kind != want {
			t.Errorf("turns[%d].Kind = %v, want %v", i, turns[i].Kind, want)
		}
	}
	if turns[1].CallID != turns[2].CallID {
		t.Errorf("tool call id %q does not match result id %q", turns[1].CallID, turns[2].CallID)
	}
	if turns[2].Output != "red" {
		t.Errorf("tool result output = %q, want red", turns[2].Output)
	}

	// Second round continues from resp_1 and delivers only the result.
	second := provider.requests[1]
	if second.PreviousID != "resp_1" {
		t.Errorf("second request PreviousID = %q, want resp_1", second.PreviousID)
	}
	if len(second.Input) != 1 || second.Input[0].Type != llm.ItemFunctionCallOutput {
		t.Errorf("second request Input = %+v, want one function_call_output", second.Input)
	}
	if second.Input[0].CallID != "call_1" || second.Input[0].Output != "red" {
		t.Errorf("second request output item = %+v", second.Input[0])
	}
}

func TestChat_MultipleToolCallsInOrder(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", ToolCalls: []llm.ToolCall{
			{CallID: "call_a", Name: "random_color", Arguments: "{}"},
			{CallID: "call_b", Name: "random_color", Arguments: "{}"},
			{CallID: "call_c", Name: "random_number", Arguments: "{}"},
		}},
		{ID: "resp_2", Text: "blue, orange and 27."},
	}}
	ag, _ := New(provider, testRegistry("blue", "orange"), testPrompt)

	result, err := ag.Chat(context.Background(), "two colors and a number")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	wantOutputs := []string{"blue", "orange", "27"}
	if len(result.ToolCalls) != 3 {
		t.Fatalf("Chat() executed %d tools, want 3", len(result.ToolCalls))
	}
	for i, want := range wantOutputs {
		if result.ToolCalls[i].Output != want {
			t.Errorf("ToolCalls[%d].Output = %q, want %q", i, result.ToolCalls[i].Output, want)
		}
	}

	// Request/result pairs stay adjacent and ordered, never interleaved.
	turns := ag.History()
	wantKinds := []TurnKind{
		TurnUser,
		TurnToolCall, TurnToolResult,
		TurnToolCall, TurnToolResult,
		TurnToolCall, TurnToolResult,
		TurnAssistant,
	}
	if len(turns) != len(wantKinds) {
		t.Fatalf("transcript has %d turns, want %d", len(turns), len(wantKinds))
	}
	for i, want := range wantKinds {
		if turns[i].Kind != want {
			t.Errorf("turns[%d].Kind = %v, want %v", i, turns[i].Kind, want)
		}
	}
	wantIDs := []string{"call_a", "call_a", "call_b", "call_b", "call_c", "call_c"}
	for i := 0; i < 6; i++ {
		if turns[i+1].CallID != wantIDs[i] {
			t.Errorf("turns[%d].CallID = %q, want %q", i+1, turns[i+1].CallID, wantIDs[i])
		}
	}

	// All three results travel in the single second round trip.
	if len(provider.requests) != 2 {
		t.Fatalf("provider called %d times, want 2", len(provider.requests))
	}
	if len(provider.requests[1].Input) != 3 {
		t.Errorf("second request has %d items, want 3 outputs", len(provider.requests[1].Input))
	}
}

func TestChat_UnknownToolFedBackAsError(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", ToolCalls: []llm.ToolCall{
			{CallID: "call_1", Name: "get_weather", Arguments: "{}"},
		}},
		{ID: "resp_2", Text: "Sorry, I cannot check the weather."},
	}}
	ag, _ := New(provider, testRegistry(), testPrompt)

	result, err := ag.Chat(context.Background(), "what's the weather?")
	if err != nil {
		t.Fatalf("Chat() error = %v; dispatch failures should be fed back, not surfaced", err)
	}
	if result.Response != "Sorry, I cannot check the weather." {
		t.Errorf("Chat().Response = %q", result.Response)
	}

	turns := ag.History()
	if len(turns) != 4 {
		t.Fatalf("transcript has %d turns, want 4", len(turns))
	}
	if !turns[2].IsError {
		t.Error("tool result turn should be error-flagged")
	}
	if turns[2].Output == "" {
		t.Error("error-flagged result should carry an error description")
	}
}

func TestChat_EndpointErrorAbortsTurn(t *testing.T) {
	endpointErr := &llm.EndpointError{Provider: "OpenAI", Status: 503}
	provider := &scriptedProvider{errs: []error{endpointErr}}
	ag, _ := New(provider, testRegistry(), testPrompt)

	_, err := ag.Chat(context.Background(), "hello?")

	var epErr *llm.EndpointError
	if !errors.As(err, &epErr) {
		t.Fatalf("Chat() error = %T, want *llm.EndpointError", err)
	}

	// The user message stays in the transcript for a later retry.
	turns := ag.History()
	if len(turns) != 1 || turns[0].Kind != TurnUser {
		t.Errorf("transcript = %+v, want just the user turn", turns)
	}
}

func TestChat_ToolLoopExceeded(t *testing.T) {
	looping := &llm.Response{ID: "resp", ToolCalls: []llm.ToolCall{
		{CallID: "call", Name: "random_color", Arguments: "{}"},
	}}
	provider := &scriptedProvider{responses: []*llm.Response{looping, looping, looping, looping}}
	ag, _ := New(provider, testRegistry(), testPrompt)
	ag.SetMaxRounds(3)

	_, err := ag.Chat(context.Background(), "loop forever")

	var loopErr *ToolLoopError
	if !errors.As(err, &loopErr) {
		t.Fatalf("Chat() error = %T, want *ToolLoopError", err)
	}
	if loopErr.Rounds != 3 {
		t.Errorf("ToolLoopError.Rounds = %d, want 3", loopErr.Rounds)
	}
	if len(provider.requests) != 3 {
		t.Errorf("provider called %d times, want 3", len(provider.requests))
	}
}

func TestChat_SynthesizesMissingCallID(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", ToolCalls: []llm.ToolCall{
			{Name: "random_color", Arguments: "{}"},
		}},
		{ID: "resp_2", Text: "done"},
	}}
	ag, _ := New(provider, testRegistry(), testPrompt)

	if _, err := ag.Chat(context.Background(), "color"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	turns := ag.History()
	if turns[1].CallID == "" {
		t.Error("agent should synthesize a call id when the model omits one")
	}
	if turns[1].CallID != turns[2].CallID {
		t.Error("synthesized call id must correlate request and result")
	}
}

func TestChat_EventHandler(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", ToolCalls: []llm.ToolCall{
			{CallID: "call_1", Name: "random_color", Arguments: "{}"},
		}},
		{ID: "resp_2", Text: "done"},
	}}
	ag, _ := New(provider, testRegistry(), testPrompt)

	handler := &recordingHandler{}
	ag.SetEventHandler(handler)

	if _, err := ag.Chat(context.Background(), "color"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if handler.thinking != 2 {
		t.Errorf("OnThinking called %d times, want 2", handler.thinking)
	}
	if len(handler.toolCalls) != 1 || handler.toolCalls[0] != "random_color" {
		t.Errorf("OnToolCall calls = %v", handler.toolCalls)
	}
	if len(handler.toolResults) != 1 {
		t.Errorf("OnToolResult called %d times, want 1", len(handler.toolResults))
	}
}

func TestChat_MultipleTurnsShareContinuation(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", Text: "first"},
		{ID: "resp_2", Text: "second"},
	}}
	ag, _ := New(provider, testRegistry(), testPrompt)

	ctx := context.Background()
	if _, err := ag.Chat(ctx, "one"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if _, err := ag.Chat(ctx, "two"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if provider.requests[1].PreviousID != "resp_1" {
		t.Errorf("second turn PreviousID = %q, want resp_1", provider.requests[1].PreviousID)
	}
	// Only the new user message rides in the second turn's input.
	if len(provider.requests[1].Input) != 1 || provider.requests[1].Input[0].Content != "two" {
		t.Errorf("second turn Input = %+v, want just the new user message", provider.requests[1].Input)
	}
	if len(ag.History()) != 4 {
		t.Errorf("transcript has %d turns after two exchanges, want 4", len(ag.History()))
	}
}

func TestReset(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ID: "resp_1", Text: "hello"},
	}}
	ag, _ := New(provider, testRegistry(), testPrompt)

	if _, err := ag.Chat(context.Background(), "hi"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	ag.Reset()

	if ag.transcript.Len() != 0 {
		t.Errorf("Reset() left %d turns", ag.transcript.Len())
	}
	if ag.lastID != "" {
		t.Error("Reset() should clear the continuation token")
	}
	if len(ag.pending) != 1 || ag.pending[0].Role != "system" {
		t.Error("Reset() should re-queue the system prompt")
	}
}

func TestTranscript_Items(t *testing.T) {
	tr := &Transcript{}
	tr.Append(Turn{Kind: TurnUser, Text: "hi"})
	tr.Append(Turn{Kind: TurnToolCall, CallID: "c1", ToolName: "random_color", Arguments: "{}"})
	tr.Append(Turn{Kind: TurnToolResult, CallID: "c1", ToolName: "random_color", Output: "red"})
	tr.Append(Turn{Kind: TurnAssistant, Text: "red it is"})

	items := tr.Items()
	if len(items) != 4 {
		t.Fatalf("Items() returned %d items, want 4", len(items))
	}
	wantTypes := []string{llm.ItemMessage, llm.ItemFunctionCall, llm.ItemFunctionCallOutput, llm.ItemMessage}
	for i, want := range wantTypes {
		if items[i].Type != want {
			t.Errorf("items[%d].Type = %q, want %q", i, items[i].Type, want)
		}
	}
	if items[1].CallID != "c1" || items[2].CallID != "c1" {
		t.Error("Items() should preserve call id correlation")
	}
}
