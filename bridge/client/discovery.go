package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// get performs a single GET against path with the per-call timeout.
// Discovery endpoints are cheap and idempotent, so failures surface
// immediately instead of burning the retry budget.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &BridgeError{
			Kind:    KindClient,
			Message: fmt.Sprintf("build request: %v", err),
			Cause:   err,
		}
	}

	resp, err := c.Session().Do(req)
	if err != nil {
		return nil, c.describeSendError(ctx, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.describeSendError(ctx, "", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, newServerError("", resp.StatusCode, body)
	case resp.StatusCode >= 400:
		return nil, newClientError("", resp.StatusCode, body)
	}

	return body, nil
}

// ListTools returns the names of the tools the bridge server exposes.
func (c *Client) ListTools(ctx context.Context) (names []string, err error) {
	ctx, finish := c.tracer.StartSpan(ctx, "list_tools", nil)
	defer func() { finish(err) }()

	body, err := c.get(ctx, "/tools/list", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Tools []string `json:"tools"`
	}
	if err = json.Unmarshal(body, &payload); err != nil {
		err = newNetworkError("", fmt.Errorf("decode response: %w", err))
		return nil, err
	}
	if payload.Tools == nil {
		return []string{}, nil
	}
	return payload.Tools, nil
}

func schemaCacheKey(tool string) string { return "schema:" + tool }

// ToolSchema returns the input schema for a tool, memoized in the schema
// cache until the entry's TTL passes.
func (c *Client) ToolSchema(ctx context.Context, tool string) (schema map[string]any, err error) {
	if tool == "" {
		return nil, &BridgeError{Kind: KindClient, Message: "tool name is required"}
	}

	ctx, finish := c.tracer.StartSpan(ctx, "tool_schema", map[string]any{"tool": tool})
	defer func() { finish(err) }()

	key := schemaCacheKey(tool)
	if cached, ok := c.schemas.Get(ctx, key); ok {
		if uerr := json.Unmarshal(cached, &schema); uerr == nil {
			c.tracer.Event(ctx, "schema_cache_hit", map[string]any{"tool": tool})
			return schema, nil
		}
		// corrupt entry, refetch below
		schema = nil
	}

	return c.fetchSchema(ctx, tool, key)
}

// ToolSchemaFresh fetches the schema from the server, bypassing the cache
// read but still refreshing the stored entry.
func (c *Client) ToolSchemaFresh(ctx context.Context, tool string) (schema map[string]any, err error) {
	if tool == "" {
		return nil, &BridgeError{Kind: KindClient, Message: "tool name is required"}
	}

	ctx, finish := c.tracer.StartSpan(ctx, "tool_schema", map[string]any{"tool": tool, "fresh": true})
	defer func() { finish(err) }()

	return c.fetchSchema(ctx, tool, schemaCacheKey(tool))
}

func (c *Client) fetchSchema(ctx context.Context, tool, key string) (map[string]any, error) {
	body, err := c.get(ctx, "/tools/schema", url.Values{"name": []string{tool}})
	if err != nil {
		return nil, err
	}

	var schema map[string]any
	if err := json.Unmarshal(body, &schema); err != nil {
		return nil, newNetworkError("", fmt.Errorf("decode response: %w", err))
	}

	// cache write failures never fail the call
	_ = c.schemas.Set(ctx, key, body, c.schemaTTL)

	return schema, nil
}

// InvalidateSchema drops a tool's cached schema.
func (c *Client) InvalidateSchema(ctx context.Context, tool string) error {
	return c.schemas.Delete(ctx, schemaCacheKey(tool))
}

// Health probes the bridge server and reports a non-ok status as an error.
func (c *Client) Health(ctx context.Context) error {
	body, err := c.get(ctx, "/health", nil)
	if err != nil {
		return err
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return newNetworkError("", fmt.Errorf("decode response: %w", err))
	}
	if payload.Status != "ok" {
		return fmt.Errorf("bridge reported status %q", payload.Status)
	}
	return nil
}
