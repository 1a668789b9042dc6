// Package agent implements a bounded model/tool loop: the model either
// answers or requests tool calls, tools produce observations, observations
// feed the next model turn.
package agent

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// Tool is a named capability the model can invoke with JSON arguments.
type Tool interface {
	// Name is the function name exposed to the model.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Parameters is the JSON-schema description of the arguments object.
	Parameters() map[string]any

	// Call executes the tool with raw JSON arguments and returns the
	// observation text fed back to the model.
	Call(ctx context.Context, arguments string) (string, error)
}

// toolDefinitions converts tools into the model client's tool shape.
func toolDefinitions(tools []Tool) []llms.Tool {
	defs := make([]llms.Tool, len(tools))
	for i, t := range tools {
		defs[i] = llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}
