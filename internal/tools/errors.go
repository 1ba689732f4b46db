package tools

import "fmt"

// SchemaError reports a tool definition that cannot be represented in the
// wire schema format. Raised once when the registry is translated; treated
// as fatal at bootstrap.
type SchemaError struct {
	Tool  string
	Param string
	Type  string
}

func (e *SchemaError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("tool %q: parameter schema type %q cannot be represented", e.Tool, e.Type)
	}
	return fmt.Sprintf("tool %q: parameter %q has unrepresentable type %q", e.Tool, e.Param, e.Type)
}

// UnknownToolError is returned when the model requests a tool that is not registered
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ArgumentError reports model-supplied arguments that could not be parsed or
// coerced against the tool's declared schema
type ArgumentError struct {
	Tool  string
	Param string
	Err   error
}

func (e *ArgumentError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("tool %q: invalid arguments: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("tool %q: invalid argument %q: %v", e.Tool, e.Param, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ToolExecutionError wraps a failure inside the native callable
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }
