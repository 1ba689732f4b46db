package tools

import (
	"context"
	"math/rand"
)

// The toy tools Baz started with. They keep the loop exercisable end to end
// without touching the filesystem or network.

var colors = []string{"red", "green", "blue", "yellow", "purple", "orange", "brown", "black", "white"}

// ColorTool returns a random color name
type ColorTool struct {
	BaseTool
}

// NewColorTool creates a new random color tool
func NewColorTool() *ColorTool {
	return &ColorTool{
		BaseTool: BaseTool{
			Def: Definition{
				Name:        "random_color",
				Description: "Select and return a random color",
				Parameters: &JSONSchema{
					Type: "object",
				},
			},
		},
	}
}

// Execute picks a color
func (t *ColorTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	return colors[rand.Intn(len(colors))], nil
}

// NumberTool returns a random integer
type NumberTool struct {
	BaseTool
}

// NewNumberTool creates a new random number tool
func NewNumberTool() *NumberTool {
	return &NumberTool{
		BaseTool: BaseTool{
			Def: Definition{
				Name:        "random_number",
				Description: "Select and return a random integer between 0 and max, inclusive",
				Parameters: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"max": {
							Type:        "integer",
							Description: "Upper bound for the random number (defaults to 100)",
							Default:     100,
						},
					},
				},
			},
		},
	}
}

// Execute picks a number in [0, max]
func (t *NumberTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	max := 100
	if v, ok := args["max"].(int); ok && v > 0 {
		max = v
	}
	return rand.Intn(max + 1), nil
}

// DefaultRegistry returns a registry with the built-in tools registered
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewColorTool())
	reg.Register(NewNumberTool())
	return reg
}
