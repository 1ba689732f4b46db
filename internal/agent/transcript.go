package agent

import "github.com/bazlabs/baz/internal/llm"

// TurnKind discriminates transcript entries
type TurnKind int

const (
	TurnUser TurnKind = iota
	TurnAssistant
	TurnToolCall
	TurnToolResult
)

// String returns a readable name for the turn kind
func (k TurnKind) String() string {
	switch k {
	case TurnUser:
		return "user"
	case TurnAssistant:
		return "assistant"
	case TurnToolCall:
		return "tool_call"
	case TurnToolResult:
		return "tool_result"
	}
	return "unknown"
}

// Turn is one entry of the conversation transcript
type Turn struct {
	Kind      TurnKind
	Text      string // user and assistant turns
	CallID    string // tool call and result turns
	ToolName  string
	Arguments string // raw JSON as emitted by the model
	Output    string // result payload
	IsError   bool   // result carries an error description
}

// Transcript is the ordered history of one conversation. Turns are only
// appended, in real occurrence order; a tool call turn is always followed by
// its matching result before the next model request goes out.
type Transcript struct {
	turns []Turn
}

// Append adds a turn to the end of the transcript
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// Turns returns a copy of the transcript entries
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Items renders the transcript in the wire item form providers consume
func (t *Transcript) Items() []llm.Item {
	items := make([]llm.Item, 0, len(t.turns))
	for _, turn := range t.turns {
		switch turn.Kind {
		case TurnUser:
			items = append(items, llm.Item{Type: llm.ItemMessage, Role: "user", Content: turn.Text})
		case TurnAssistant:
			items = append(items, llm.Item{Type: llm.ItemMessage, Role: "assistant", Content: turn.Text})
		case TurnToolCall:
			items = append(items, llm.Item{
				Type:      llm.ItemFunctionCall,
				CallID:    turn.CallID,
				Name:      turn.ToolName,
				Arguments: turn.Arguments,
			})
		case TurnToolResult:
			items = append(items, llm.Item{
				Type:   llm.ItemFunctionCallOutput,
				CallID: turn.CallID,
				Output: turn.Output,
			})
		}
	}
	return items
}
