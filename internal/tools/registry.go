package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"

	"github.com/bazlabs/baz/internal/llm"
)

// wireTypes are the parameter types the wire schema can carry
var wireTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"object":  true,
}

// Registry manages tool registration and dispatch
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry. Names are unique; registering the
// same name again replaces the previous tool.
func (r *Registry) Register(tool Tool) {
	def := tool.Definition()
	r.tools[def.Name] = tool
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tool definitions, sorted by name
func (r *Registry) List() []Definition {
	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// WireDefinitions translates every registered tool into the wire format the
// model API expects: one entry per tool, sorted by name so translating the
// same registry twice yields identical output.
func (r *Registry) WireDefinitions() ([]llm.ToolDef, error) {
	result := make([]llm.ToolDef, 0, len(r.tools))
	for _, def := range r.List() {
		params, err := wireParameters(def)
		if err != nil {
			return nil, err
		}
		result = append(result, llm.ToolDef{
			Type:        "function",
			Name:        def.Name,
			Description: def.Description,
			Parameters:  params,
		})
	}
	return result, nil
}

// wireParameters translates one descriptor's parameter schema to the wire form
func wireParameters(def Definition) (map[string]any, error) {
	schema := def.Parameters
	if schema == nil {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}, nil
	}
	if schema.Type != "object" {
		return nil, &SchemaError{Tool: def.Name, Type: schema.Type}
	}

	props := make(map[string]any)
	for name, prop := range schema.Properties {
		p, err := wireProperty(def.Name, name, prop, true)
		if err != nil {
			return nil, err
		}
		props[name] = p
	}

	result := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(schema.Required) > 0 {
		required := slices.Clone(schema.Required)
		sort.Strings(required)
		result["required"] = required
	}
	return result, nil
}

// wireProperty translates a single parameter. Nested objects are allowed one
// level down with primitive members only.
func wireProperty(tool, name string, prop *JSONSchema, allowObject bool) (map[string]any, error) {
	if !wireTypes[prop.Type] || (prop.Type == "object" && !allowObject) {
		return nil, &SchemaError{Tool: tool, Param: name, Type: prop.Type}
	}

	p := map[string]any{"type": prop.Type}
	if prop.Description != "" {
		p["description"] = prop.Description
	}
	if len(prop.Enum) > 0 {
		p["enum"] = slices.Clone(prop.Enum)
	}
	if prop.Type == "object" {
		members := make(map[string]any)
		for memberName, member := range prop.Properties {
			m, err := wireProperty(tool, name+"."+memberName, member, false)
			if err != nil {
				return nil, err
			}
			members[memberName] = m
		}
		p["properties"] = members
	}
	return p, nil
}

// Dispatch executes a model-requested tool call. Arguments are validated
// permissively because they originate from a model rather than a trusted
// caller: primitives are coerced best-effort, missing optional parameters
// take the descriptor default, and unknown parameters are dropped. A missing
// or un-coercible required parameter is an ArgumentError. The callable runs
// exactly once; a panic or error inside it becomes a ToolExecutionError.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) (Result, error) {
	tool, ok := r.tools[call.Name]
	if !ok {
		return Result{CallID: call.CallID, IsError: true}, &UnknownToolError{Name: call.Name}
	}

	args, err := parseArguments(tool.Definition(), call.Arguments)
	if err != nil {
		return Result{CallID: call.CallID, IsError: true}, err
	}

	out, err := invoke(ctx, tool, args)
	if err != nil {
		return Result{CallID: call.CallID, IsError: true}, &ToolExecutionError{Tool: call.Name, Err: err}
	}

	return Result{CallID: call.CallID, Output: stringify(out)}, nil
}

// invoke runs the callable with panic recovery
func invoke(ctx context.Context, tool Tool, args map[string]any) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return tool.Execute(ctx, args)
}

// parseArguments decodes the raw JSON arguments and validates them against
// the descriptor schema
func parseArguments(def Definition, raw string) (map[string]any, error) {
	supplied := make(map[string]any)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &supplied); err != nil {
			return nil, &ArgumentError{Tool: def.Name, Err: fmt.Errorf("malformed JSON: %w", err)}
		}
	}

	schema := def.Parameters
	if schema == nil || len(schema.Properties) == 0 {
		return map[string]any{}, nil
	}

	args := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		required := slices.Contains(schema.Required, name)

		value, present := supplied[name]
		if present {
			coerced, err := coerceValue(prop, value)
			if err == nil {
				args[name] = coerced
				continue
			}
			if required {
				return nil, &ArgumentError{Tool: def.Name, Param: name, Err: err}
			}
			// Optional with an unusable value: fall through to the default.
		}

		if prop.Default != nil {
			args[name] = prop.Default
			continue
		}
		if required {
			return nil, &ArgumentError{Tool: def.Name, Param: name, Err: fmt.Errorf("missing required parameter")}
		}
	}
	return args, nil
}

// coerceValue converts a decoded JSON value to the declared parameter type,
// accepting close-enough representations the model commonly produces
func coerceValue(prop *JSONSchema, value any) (any, error) {
	switch prop.Type {
	case "string":
		var s string
		switch v := value.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		if len(prop.Enum) > 0 && !slices.Contains(prop.Enum, s) {
			return nil, fmt.Errorf("value %q not in enum %v", s, prop.Enum)
		}
		return s, nil

	case "number":
		switch v := value.(type) {
		case float64:
			return v, nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("expected number, got %q", v)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}

	case "integer":
		switch v := value.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return int(v), nil
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", v)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", value)
		}

	case "boolean":
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("expected boolean, got %q", v)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}

	case "object":
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", value)
		}
		return m, nil
	}

	return nil, fmt.Errorf("unsupported parameter type %q", prop.Type)
}

// stringify coerces a native tool result to the textual wire payload.
// Maps and slices render as JSON; everything else uses its natural form.
func stringify(v any) string {
	switch out := v.(type) {
	case nil:
		return ""
	case string:
		return out
	case map[string]any, []any:
		b, err := json.Marshal(out)
		if err != nil {
			return fmt.Sprintf("%v", out)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", out)
	}
}
