package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInvoker implements the invoker port with a pluggable function.
type stubInvoker struct {
	callTool func(ctx context.Context, tool string, input map[string]any) (any, error)
}

func (s *stubInvoker) CallTool(ctx context.Context, tool string, input map[string]any) (any, error) {
	return s.callTool(ctx, tool, input)
}

func (s *stubInvoker) CallToolRaw(ctx context.Context, tool string, input map[string]any) (json.RawMessage, error) {
	result, err := s.callTool(ctx, tool, input)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func TestChain_Execute(t *testing.T) {
	var calls []string

	inv := &stubInvoker{
		callTool: func(ctx context.Context, tool string, input map[string]any) (any, error) {
			calls = append(calls, tool)
			switch tool {
			case "Read":
				assert.Equal(t, "/tmp/in.txt", input["path"])
				return "file contents", nil
			case "Write":
				assert.Equal(t, "file contents", input["content"])
				return nil, nil
			}
			t.Errorf("unexpected tool %s", tool)
			return nil, nil
		},
	}

	results, err := NewChain(inv).
		Add("Read", map[string]any{"path": "/tmp/in.txt"}).
		AddMapped("Write", func(prev any) map[string]any {
			return map[string]any{"path": "/tmp/out.txt", "content": prev}
		}).
		Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Read", "Write"}, calls)
	require.Len(t, results, 2)
	assert.Equal(t, "file contents", results[0])
}

func TestChain_StopsAtFirstFailure(t *testing.T) {
	var calls []string

	inv := &stubInvoker{
		callTool: func(ctx context.Context, tool string, input map[string]any) (any, error) {
			calls = append(calls, tool)
			if tool == "second" {
				return nil, errors.New("boom")
			}
			return tool, nil
		},
	}

	results, err := NewChain(inv).
		Add("first", nil).
		Add("second", nil).
		Add("third", nil).
		Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (second) failed")
	// partial results survive the failure
	assert.Equal(t, []any{"first"}, results)
	assert.Equal(t, []string{"first", "second"}, calls, "third step must not run")
}

func TestChain_FixedInputsPassedVerbatim(t *testing.T) {
	inv := &stubInvoker{
		callTool: func(ctx context.Context, tool string, input map[string]any) (any, error) {
			assert.Equal(t, map[string]any{"k": "v"}, input)
			return "done", nil
		},
	}

	results, err := NewChain(inv).
		Add("first", map[string]any{"k": "v"}).
		Add("second", map[string]any{"k": "v"}).
		Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []any{"done", "done"}, results)
}
