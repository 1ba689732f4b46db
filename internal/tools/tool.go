package tools

import "context"

// Tool is the interface all tools must implement
type Tool interface {
	// Definition returns the structured tool definition
	Definition() Definition

	// Execute runs the tool with validated arguments and returns its native
	// result; the registry coerces it to the wire payload
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// BaseTool provides the Definition half for tools built from a static descriptor
type BaseTool struct {
	Def Definition
}

// Definition returns the tool definition
func (b *BaseTool) Definition() Definition {
	return b.Def
}

// FuncTool adapts a plain function into a Tool
type FuncTool struct {
	BaseTool
	Fn func(ctx context.Context, args map[string]any) (any, error)
}

// NewFuncTool creates a tool from a descriptor and a callable
func NewFuncTool(def Definition, fn func(ctx context.Context, args map[string]any) (any, error)) *FuncTool {
	return &FuncTool{BaseTool: BaseTool{Def: def}, Fn: fn}
}

// Execute invokes the wrapped function
func (t *FuncTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	return t.Fn(ctx, args)
}
