package client

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a bridge call failure.
type Kind string

const (
	KindConnection Kind = "connection" // server unreachable
	KindServer     Kind = "server"     // HTTP 5xx
	KindClient     Kind = "client"     // HTTP 4xx or bad request input
	KindTimeout    Kind = "timeout"    // attempt deadline exceeded
	KindNetwork    Kind = "network"    // other transport failure
)

// BridgeError is a transport-level failure talking to the bridge server.
type BridgeError struct {
	Kind    Kind
	Tool    string
	Status  int // HTTP status when Kind is server or client, else 0
	Message string
	Cause   error
}

func (e *BridgeError) Error() string { return e.Message }

func (e *BridgeError) Unwrap() error { return e.Cause }

// Retryable reports whether another attempt could plausibly succeed.
func (e *BridgeError) Retryable() bool {
	switch e.Kind {
	case KindConnection, KindServer, KindTimeout, KindNetwork:
		return true
	}
	return false
}

// ToolExecutionError reports a tool that reached the server, ran, and failed.
// It is never retried.
type ToolExecutionError struct {
	Tool    string
	Message string
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}

// IsRetryable reports whether err represents a transient bridge failure.
func IsRetryable(err error) bool {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Retryable()
	}
	return false
}

func newServerError(tool string, status int, body []byte) *BridgeError {
	return &BridgeError{
		Kind:    KindServer,
		Tool:    tool,
		Status:  status,
		Message: fmt.Sprintf("server error (HTTP %d): %s", status, strings.TrimSpace(string(body))),
	}
}

func newClientError(tool string, status int, body []byte) *BridgeError {
	return &BridgeError{
		Kind:    KindClient,
		Tool:    tool,
		Status:  status,
		Message: fmt.Sprintf("client error (HTTP %d): %s", status, strings.TrimSpace(string(body))),
	}
}

func newConnectionError(tool, endpoint string, cause error) *BridgeError {
	return &BridgeError{
		Kind:    KindConnection,
		Tool:    tool,
		Message: fmt.Sprintf("connection error: %v. Is the bridge server running at %s?", cause, endpoint),
		Cause:   cause,
	}
}

func newTimeoutError(tool string, timeout time.Duration) *BridgeError {
	msg := fmt.Sprintf("request timed out after %v", timeout)
	if tool != "" {
		msg = fmt.Sprintf("tool %s timed out after %v", tool, timeout)
	}
	return &BridgeError{
		Kind:    KindTimeout,
		Tool:    tool,
		Message: msg,
	}
}

func newNetworkError(tool string, cause error) *BridgeError {
	return &BridgeError{
		Kind:    KindNetwork,
		Tool:    tool,
		Message: fmt.Sprintf("network error: %v", cause),
		Cause:   cause,
	}
}
