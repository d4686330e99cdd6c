package registry

import (
	"context"
	"fmt"
	"strings"

	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
	"github.com/xeipuuv/gojsonschema"
)

// Validator checks stub arguments against the tool's published schema
// before the call leaves the process.
type Validator struct {
	source ports.SchemaSource
}

// NewValidator creates a validator fetching schemas from source.
func NewValidator(source ports.SchemaSource) *Validator {
	return &Validator{source: source}
}

// Validate fetches the schema for tool and validates input against it.
// A tool publishing no schema accepts any input.
func (v *Validator) Validate(ctx context.Context, tool string, input map[string]any) error {
	schema, err := v.source.ToolSchema(ctx, tool)
	if err != nil {
		return fmt.Errorf("fetch schema for %s: %w", tool, err)
	}
	if len(schema) == 0 {
		return nil
	}
	if input == nil {
		input = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return fmt.Errorf("validate arguments for %s: %w", tool, err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		issues = append(issues, issue.String())
	}
	return &ValidationError{Tool: tool, Issues: issues}
}

// ValidationError reports arguments rejected by a tool's schema.
type ValidationError struct {
	Tool   string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s", e.Tool, strings.Join(e.Issues, "; "))
}
