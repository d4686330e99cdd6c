package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// callPayload is the request body for POST /tools/call.
type callPayload struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input"`
}

// callEnvelope is the response body for POST /tools/call.
type callEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// callIDHeader correlates every attempt of one logical call in server logs.
const callIDHeader = "X-Bridge-Call-ID"

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetry
	outcomeFail
)

// outcome is the classified result of a single attempt.
type outcome struct {
	kind   outcomeKind
	result json.RawMessage
	err    error
	delay  time.Duration // backoff before the next attempt, retry only
}

func succeed(result json.RawMessage) outcome {
	return outcome{kind: outcomeSuccess, result: result}
}

func fail(err error) outcome {
	return outcome{kind: outcomeFail, err: err}
}

func (c *Client) retryAfter(err error, attempt int) outcome {
	return outcome{kind: outcomeRetry, err: err, delay: backoffDelay(c.retryDelay, attempt)}
}

// CallTool invokes a tool and decodes its result. A missing result decodes
// to nil.
func (c *Client) CallTool(ctx context.Context, tool string, input map[string]any) (any, error) {
	raw, err := c.CallToolRaw(ctx, tool, input)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, newNetworkError(tool, fmt.Errorf("decode result: %w", err))
	}
	return result, nil
}

// CallToolRaw invokes a tool and returns the raw result bytes. Transient
// failures are retried with exponential backoff until the attempt budget
// is spent; the error of the final attempt is returned verbatim.
func (c *Client) CallToolRaw(ctx context.Context, tool string, input map[string]any) (raw json.RawMessage, err error) {
	if tool == "" {
		return nil, &BridgeError{Kind: KindClient, Message: "tool name is required"}
	}
	if input == nil {
		input = map[string]any{}
	}

	body, merr := json.Marshal(callPayload{Tool: tool, Input: input})
	if merr != nil {
		return nil, &BridgeError{
			Kind:    KindClient,
			Tool:    tool,
			Message: fmt.Sprintf("encode tool input: %v", merr),
			Cause:   merr,
		}
	}

	start := time.Now()
	attempts := 0
	defer func() {
		c.metrics.RecordCall(tool, time.Since(start), attempts, err)
	}()

	release, lerr := c.limiter.Acquire(ctx, tool)
	if lerr != nil {
		err = fmt.Errorf("rate limit exceeded: %w", lerr)
		return nil, err
	}
	defer release()

	callID := uuid.NewString()
	ctx, finish := c.tracer.StartSpan(ctx, "call_tool", map[string]any{
		"tool":    tool,
		"call_id": callID,
	})
	defer func() { finish(err) }()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		attempts++

		out := c.attempt(ctx, tool, body, callID, attempt)
		switch out.kind {
		case outcomeSuccess:
			return out.result, nil
		case outcomeFail:
			err = out.err
			return nil, err
		}

		lastErr = out.err
		if attempt < c.maxRetries-1 {
			c.tracer.Event(ctx, "retry", map[string]any{
				"tool":    tool,
				"attempt": attempt + 1,
				"delay":   out.delay.String(),
				"cause":   out.err.Error(),
			})
			if werr := backoffWait(ctx, out.delay); werr != nil {
				err = werr
				return nil, err
			}
		}
	}

	if lastErr != nil {
		err = lastErr
		return nil, err
	}
	// Unreachable with a positive attempt budget; kept so a zero budget
	// still yields a descriptive error.
	err = &BridgeError{
		Kind:    KindNetwork,
		Tool:    tool,
		Message: fmt.Sprintf("failed to call tool %s after %d attempts", tool, c.maxRetries),
	}
	return nil, err
}

// attempt performs one HTTP round trip and classifies the result.
func (c *Client) attempt(ctx context.Context, tool string, body []byte, callID string, attempt int) outcome {
	attemptCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, rerr := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint+"/tools/call", bytes.NewReader(body))
	if rerr != nil {
		return fail(&BridgeError{
			Kind:    KindClient,
			Tool:    tool,
			Message: fmt.Sprintf("build request: %v", rerr),
			Cause:   rerr,
		})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(callIDHeader, callID)

	resp, derr := c.Session().Do(req)
	if derr != nil {
		return c.classifySendError(ctx, tool, derr, attempt)
	}
	defer resp.Body.Close()

	respBody, berr := io.ReadAll(resp.Body)
	if berr != nil {
		return c.classifySendError(ctx, tool, berr, attempt)
	}

	return c.classifyResponse(tool, resp.StatusCode, respBody, attempt)
}

// classifyResponse maps an HTTP response onto a success, retry, or terminal
// outcome. 5xx retries, 4xx does not, and a tool that ran and reported
// failure is never retried.
func (c *Client) classifyResponse(tool string, status int, body []byte, attempt int) outcome {
	switch {
	case status >= 500:
		return c.retryAfter(newServerError(tool, status, body), attempt)
	case status >= 400:
		return fail(newClientError(tool, status, body))
	}

	var env callEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return c.retryAfter(newNetworkError(tool, fmt.Errorf("decode response: %w", err)), attempt)
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return fail(&ToolExecutionError{Tool: tool, Message: msg})
	}

	return succeed(env.Result)
}

// classifySendError turns a transport error into a retry or terminal
// outcome based on its classification.
func (c *Client) classifySendError(ctx context.Context, tool string, err error, attempt int) outcome {
	derr := c.describeSendError(ctx, tool, err)
	if !IsRetryable(derr) {
		return fail(derr)
	}
	return c.retryAfter(derr, attempt)
}

// describeSendError translates a transport error into a bridge error. The
// parent context is consulted first so caller cancellation is not mistaken
// for an attempt timeout.
func (c *Client) describeSendError(ctx context.Context, tool string, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("bridge request aborted: %w", cerr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newTimeoutError(tool, c.callTimeout)
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return newConnectionError(tool, c.endpoint, err)
	}

	return newNetworkError(tool, err)
}

// backoffDelay doubles the base delay for every attempt already made.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << uint(attempt)
}

// backoffWait sleeps for d or until ctx is done.
func backoffWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("bridge request aborted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
