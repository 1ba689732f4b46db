package agent

import "github.com/bazlabs/baz/internal/tools"

// EventHandler receives callbacks during agent execution. Handlers are
// observational: they must not mutate conversation state.
type EventHandler interface {
	OnThinking()
	OnToolCall(name string, args string)
	OnToolResult(name string, result tools.Result)
}
