package client

import (
	"context"
	"fmt"

	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
)

// Step is one tool invocation in a chain. When Mapper is set, the step's
// input is derived from the previous step's result instead of Input.
type Step struct {
	Tool   string
	Input  map[string]any
	Mapper func(prev any) map[string]any
}

// Chain runs tools in sequence, threading each result into the next step.
type Chain struct {
	inv   ports.Invoker
	steps []Step
}

// NewChain creates an empty chain over inv.
func NewChain(inv ports.Invoker) *Chain {
	return &Chain{inv: inv}
}

// Add appends a step with a fixed input.
func (ch *Chain) Add(tool string, input map[string]any) *Chain {
	ch.steps = append(ch.steps, Step{Tool: tool, Input: input})
	return ch
}

// AddMapped appends a step whose input is built from the previous result.
func (ch *Chain) AddMapped(tool string, mapper func(prev any) map[string]any) *Chain {
	ch.steps = append(ch.steps, Step{Tool: tool, Mapper: mapper})
	return ch
}

// Execute runs the chain, stopping at the first failing step. The results
// collected so far are returned alongside the error.
func (ch *Chain) Execute(ctx context.Context) ([]any, error) {
	results := make([]any, 0, len(ch.steps))

	var prev any
	for i, step := range ch.steps {
		input := step.Input
		if i > 0 && step.Mapper != nil {
			input = step.Mapper(prev)
		}

		result, err := ch.inv.CallTool(ctx, step.Tool, input)
		if err != nil {
			return results, fmt.Errorf("step %d (%s) failed: %w", i, step.Tool, err)
		}

		results = append(results, result)
		prev = result
	}

	return results, nil
}
