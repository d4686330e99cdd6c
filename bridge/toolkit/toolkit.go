// Package toolkit provides typed wrappers for the file and shell tools a
// bridge server conventionally exposes.
package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
)

// Toolkit wraps an invoker with typed helpers for the standard tools.
type Toolkit struct {
	inv ports.Invoker
}

// New creates a toolkit calling tools through inv.
func New(inv ports.Invoker) *Toolkit {
	return &Toolkit{inv: inv}
}

// Read returns the contents of a file on the bridge host.
func (t *Toolkit) Read(ctx context.Context, path string) (string, error) {
	raw, err := t.inv.CallToolRaw(ctx, "Read", map[string]any{"path": path})
	if err != nil {
		return "", err
	}

	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", fmt.Errorf("decode Read result: %w", err)
	}
	return content, nil
}

// Write replaces the contents of a file on the bridge host.
func (t *Toolkit) Write(ctx context.Context, path, content string) error {
	_, err := t.inv.CallTool(ctx, "Write", map[string]any{
		"path":    path,
		"content": content,
	})
	return err
}

// Glob returns the paths under dir matching pattern. An empty dir means
// the server's working directory.
func (t *Toolkit) Glob(ctx context.Context, pattern, dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}

	raw, err := t.inv.CallToolRaw(ctx, "Glob", map[string]any{
		"pattern": pattern,
		"path":    dir,
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return nil, fmt.Errorf("decode Glob result: %w", err)
	}
	return paths, nil
}

// Grep searches file contents under dir. glob narrows the searched files
// and may be empty. The result shape is tool-defined.
func (t *Toolkit) Grep(ctx context.Context, pattern, dir, glob string) (any, error) {
	if dir == "" {
		dir = "."
	}

	input := map[string]any{
		"pattern": pattern,
		"path":    dir,
	}
	if glob != "" {
		input["glob"] = glob
	}

	return t.inv.CallTool(ctx, "Grep", input)
}

// BashResult carries the streams and exit code of a shell command.
type BashResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Bash runs a shell command on the bridge host. A positive timeout is
// forwarded to the tool in whole seconds.
func (t *Toolkit) Bash(ctx context.Context, command string, timeout time.Duration) (*BashResult, error) {
	input := map[string]any{"command": command}
	if timeout > 0 {
		input["timeout"] = int(timeout.Seconds())
	}

	raw, err := t.inv.CallToolRaw(ctx, "Bash", input)
	if err != nil {
		return nil, err
	}

	var result BashResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode Bash result: %w", err)
	}
	return &result, nil
}
