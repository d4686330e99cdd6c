package client

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// BatchCall names one tool invocation in a batch.
type BatchCall struct {
	Tool  string
	Input map[string]any
}

// CallResult pairs a batch entry with its outcome.
type CallResult struct {
	Tool   string
	Result any
	Err    error
}

// BatchResult aggregates batch outcomes in input order.
type BatchResult struct {
	Results   []CallResult
	Succeeded int
	Failed    int
}

func (r *BatchResult) tally() {
	for _, res := range r.Results {
		if res.Err != nil {
			r.Failed++
		} else {
			r.Succeeded++
		}
	}
}

// CallToolsBatch runs the calls one after another. A failed call does not
// stop the rest.
func (c *Client) CallToolsBatch(ctx context.Context, calls []BatchCall) *BatchResult {
	out := &BatchResult{Results: make([]CallResult, len(calls))}
	for i, call := range calls {
		out.Results[i] = c.runBatchCall(ctx, call)
	}
	out.tally()
	return out
}

// CallToolsParallel runs the calls concurrently, bounded by the configured
// tool concurrency. Results keep input order.
func (c *Client) CallToolsParallel(ctx context.Context, calls []BatchCall) *BatchResult {
	out := &BatchResult{Results: make([]CallResult, len(calls))}

	p := pool.New().WithMaxGoroutines(c.toolConcurrency)
	for i, call := range calls {
		i, call := i, call
		p.Go(func() {
			out.Results[i] = c.runBatchCall(ctx, call)
		})
	}
	p.Wait()

	out.tally()
	return out
}

func (c *Client) runBatchCall(ctx context.Context, call BatchCall) CallResult {
	result, err := c.CallTool(ctx, call.Tool, call.Input)
	return CallResult{Tool: call.Tool, Result: result, Err: err}
}
