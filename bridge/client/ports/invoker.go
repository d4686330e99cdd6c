package clientports

import (
	"context"
	"encoding/json"
)

// Invoker executes a named tool on the bridge server.
type Invoker interface {
	CallTool(ctx context.Context, tool string, input map[string]any) (any, error)
	CallToolRaw(ctx context.Context, tool string, input map[string]any) (json.RawMessage, error)
}

// SchemaSource resolves the input schema for a named tool.
type SchemaSource interface {
	ToolSchema(ctx context.Context, tool string) (map[string]any, error)
}

// ToolLister enumerates the tools the bridge server exposes.
type ToolLister interface {
	ListTools(ctx context.Context) ([]string, error)
}
