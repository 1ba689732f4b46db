package agent

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bazlabs/baz/internal/llm"
	"github.com/bazlabs/baz/internal/tools"
)

const defaultMaxRounds = 10

// ToolExecution records a single tool call and its result
type ToolExecution struct {
	Name    string
	Args    string // raw JSON arguments for display
	Output  string
	IsError bool
}

// ChatResult contains the final response and any tool executions
type ChatResult struct {
	Response  string
	ToolCalls []ToolExecution
}

// ToolLoopError reports a turn that exceeded the tool-calling round cap
type ToolLoopError struct {
	Rounds int
}

func (e *ToolLoopError) Error() string {
	return fmt.Sprintf("model kept requesting tools after %d rounds", e.Rounds)
}

// Agent drives the conversation loop between the user, the model endpoint,
// and the tool registry. It exclusively owns the conversation state: the
// transcript, the continuation token from the prior response, and the wire
// items not yet delivered to the endpoint.
type Agent struct {
	provider  llm.Provider
	registry  *tools.Registry
	wireTools []llm.ToolDef

	id           string
	systemPrompt string
	transcript   *Transcript
	pending      []llm.Item
	lastID       string

	handler   EventHandler
	logger    *log.Logger
	maxRounds int
}

// New creates an agent. The tool registry is translated to the wire schema
// once here, so a descriptor that cannot be represented fails bootstrap
// rather than a later turn.
func New(provider llm.Provider, registry *tools.Registry, systemPrompt string) (*Agent, error) {
	wire, err := registry.WireDefinitions()
	if err != nil {
		return nil, err
	}

	a := &Agent{
		provider:     provider,
		registry:     registry,
		wireTools:    wire,
		id:           uuid.NewString(),
		systemPrompt: systemPrompt,
		transcript:   &Transcript{},
		logger:       log.New(io.Discard),
		maxRounds:    defaultMaxRounds,
	}
	// The system prompt rides along as the first item of the first request.
	a.pending = []llm.Item{a.systemItem()}

	a.logger.Debug("bootstrap", "conversation", a.id, "model", provider.ModelName(), "tools", len(wire))
	return a, nil
}

// SetEventHandler sets the callback handler for agent events
func (a *Agent) SetEventHandler(h EventHandler) {
	a.handler = h
}

// SetLogger sets the structured log sink for phase transitions
func (a *Agent) SetLogger(logger *log.Logger) {
	a.logger = logger.With("conversation", a.id)
	a.logger.Debug("bootstrap", "model", a.provider.ModelName(), "tools", len(a.wireTools))
}

// SetMaxRounds overrides the tool-calling round cap for one user turn
func (a *Agent) SetMaxRounds(n int) {
	if n > 0 {
		a.maxRounds = n
	}
}

// ID returns the conversation id
func (a *Agent) ID() string {
	return a.id
}

// History returns the conversation transcript
func (a *Agent) History() []Turn {
	return a.transcript.Turns()
}

// Reset clears the conversation, keeping the persona
func (a *Agent) Reset() {
	a.transcript = &Transcript{}
	a.pending = []llm.Item{a.systemItem()}
	a.lastID = ""
}

func (a *Agent) systemItem() llm.Item {
	return llm.Item{Type: llm.ItemMessage, Role: "system", Content: a.systemPrompt}
}

// history renders the full conversation, system prompt first, for providers
// that resend the transcript each round
func (a *Agent) history() []llm.Item {
	return append([]llm.Item{a.systemItem()}, a.transcript.Items()...)
}

// Chat runs one user turn to completion: it sends the message, executes any
// tool calls the model requests strictly in emission order, feeds the
// results back, and repeats until the model answers in plain text.
//
// Per-call dispatch failures do not abort the turn; they are fed back to the
// model as error-flagged results so it can recover conversationally.
// Endpoint failures and the round cap abort the turn and surface to the
// caller; the transcript keeps everything appended so far.
func (a *Agent) Chat(ctx context.Context, userMessage string) (*ChatResult, error) {
	a.transcript.Append(Turn{Kind: TurnUser, Text: userMessage})
	a.pending = append(a.pending, llm.Item{Type: llm.ItemMessage, Role: "user", Content: userMessage})

	result := &ChatResult{}

	for round := 0; round < a.maxRounds; round++ {
		if a.handler != nil {
			a.handler.OnThinking()
		}
		a.logger.Info("sending to model", "round", round, "items", len(a.pending))

		resp, err := a.provider.CreateResponse(ctx, &llm.Request{
			PreviousID: a.lastID,
			Input:      a.pending,
			History:    a.history(),
			Tools:      a.wireTools,
		})
		if err != nil {
			return nil, err
		}
		a.lastID = resp.ID
		a.pending = nil

		if len(resp.ToolCalls) == 0 {
			a.transcript.Append(Turn{Kind: TurnAssistant, Text: resp.Text})
			result.Response = resp.Text
			a.logger.Info("turn complete", "rounds", round+1)
			return result, nil
		}

		// Execute requested tools sequentially, in the order the model
		// emitted them. Every call gets its result appended before the next
		// call starts, and all results land before the next model request.
		for _, call := range resp.ToolCalls {
			callID := call.CallID
			if callID == "" {
				callID = uuid.NewString()
			}

			a.transcript.Append(Turn{
				Kind:      TurnToolCall,
				CallID:    callID,
				ToolName:  call.Name,
				Arguments: call.Arguments,
			})
			if a.handler != nil {
				a.handler.OnToolCall(call.Name, call.Arguments)
			}
			a.logger.Info("tool call", "tool", call.Name, "args", call.Arguments)

			res, err := a.registry.Dispatch(ctx, llm.ToolCall{CallID: callID, Name: call.Name, Arguments: call.Arguments})
			if err != nil {
				res = tools.Result{CallID: callID, Output: err.Error(), IsError: true}
				a.logger.Error("tool failed", "tool", call.Name, "err", err)
			} else {
				a.logger.Info("tool result", "tool", call.Name, "output", res.Output)
			}

			a.transcript.Append(Turn{
				Kind:     TurnToolResult,
				CallID:   callID,
				ToolName: call.Name,
				Output:   res.Output,
				IsError:  res.IsError,
			})
			if a.handler != nil {
				a.handler.OnToolResult(call.Name, res)
			}

			result.ToolCalls = append(result.ToolCalls, ToolExecution{
				Name:    call.Name,
				Args:    call.Arguments,
				Output:  res.Output,
				IsError: res.IsError,
			})
			a.pending = append(a.pending, llm.Item{
				Type:   llm.ItemFunctionCallOutput,
				CallID: callID,
				Output: res.Output,
			})
		}
	}

	a.logger.Error("tool loop cap reached", "rounds", a.maxRounds)
	return nil, &ToolLoopError{Rounds: a.maxRounds}
}
