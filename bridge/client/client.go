// Package client implements the HTTP client for a tool bridge server:
// tool invocation with bounded retry, discovery, and health probing.
package client

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	internal "github.com/ZanzyTHEbar/toolbridge/bridge"
	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
)

// Defaults applied by New when a Settings field is zero.
const (
	DefaultMaxRetries      = 3
	DefaultRetryDelay      = 500 * time.Millisecond
	DefaultCallTimeout     = 60 * time.Second
	DefaultToolConcurrency = 5

	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 16
	defaultIdleConnTimeout     = 90 * time.Second
	defaultSchemaTTL           = 5 * time.Minute
)

// Settings configures a Client. The zero value is usable: every field
// falls back to a default.
type Settings struct {
	// Endpoint is the bridge server base URL. Empty falls back to the
	// BRIDGE_ENDPOINT environment variable, then the built-in default.
	Endpoint string

	MaxRetries  int           // total attempts per call
	RetryDelay  time.Duration // base backoff delay, doubled per attempt
	CallTimeout time.Duration // per-attempt timeout

	// Session connection pool
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	ToolConcurrency int // max concurrent calls in parallel batches

	Tracer      ports.Tracer
	SchemaCache ports.Cache
	SchemaTTL   time.Duration
	Limiter     ports.RateLimiter
	Metrics     *Metrics
}

// Client invokes named tools on a bridge server over HTTP. It is safe for
// concurrent use.
type Client struct {
	endpoint        string
	maxRetries      int
	retryDelay      time.Duration
	callTimeout     time.Duration
	toolConcurrency int
	schemaTTL       time.Duration

	maxIdleConns        int
	maxIdleConnsPerHost int
	idleConnTimeout     time.Duration

	tracer  ports.Tracer
	schemas ports.Cache
	limiter ports.RateLimiter
	metrics *Metrics

	mu      sync.Mutex
	session *http.Client
}

// New creates a Client, filling in defaults for zero settings. A negative
// MaxRetries disables attempts entirely; zero means the default.
func New(s Settings) *Client {
	c := &Client{
		endpoint:            resolveEndpoint(s.Endpoint),
		maxRetries:          s.MaxRetries,
		retryDelay:          s.RetryDelay,
		callTimeout:         s.CallTimeout,
		toolConcurrency:     s.ToolConcurrency,
		schemaTTL:           s.SchemaTTL,
		maxIdleConns:        s.MaxIdleConns,
		maxIdleConnsPerHost: s.MaxIdleConnsPerHost,
		idleConnTimeout:     s.IdleConnTimeout,
		tracer:              s.Tracer,
		schemas:             s.SchemaCache,
		limiter:             s.Limiter,
		metrics:             s.Metrics,
	}

	if c.maxRetries == 0 {
		c.maxRetries = DefaultMaxRetries
	} else if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.callTimeout <= 0 {
		c.callTimeout = DefaultCallTimeout
	}
	if c.toolConcurrency < 1 {
		c.toolConcurrency = DefaultToolConcurrency
	}
	if c.schemaTTL <= 0 {
		c.schemaTTL = defaultSchemaTTL
	}
	if c.maxIdleConns < 1 {
		c.maxIdleConns = defaultMaxIdleConns
	}
	if c.maxIdleConnsPerHost < 1 {
		c.maxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.idleConnTimeout <= 0 {
		c.idleConnTimeout = defaultIdleConnTimeout
	}

	if c.tracer == nil {
		c.tracer = &noOpTracer{}
	}
	if c.schemas == nil {
		c.schemas = &noOpCache{}
	}
	if c.limiter == nil {
		c.limiter = &noOpRateLimiter{}
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(false)
	}

	return c
}

// resolveEndpoint applies the explicit > environment > default precedence
// and strips any trailing slash.
func resolveEndpoint(explicit string) string {
	endpoint := strings.TrimSpace(explicit)
	if endpoint == "" {
		endpoint = os.Getenv(internal.EndpointEnvVar)
	}
	if endpoint == "" {
		endpoint = internal.DefaultEndpoint
	}
	return strings.TrimRight(endpoint, "/")
}

// Session returns the shared HTTP client, creating it on first use. All
// calls reuse the same session so pooled connections are shared.
func (c *Client) Session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		c.session = c.newSession()
	}
	return c.session
}

// newSession builds the pooled HTTP client. Deadlines come from the
// per-attempt context, so the session itself carries no timeout.
func (c *Client) newSession() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        c.maxIdleConns,
			MaxIdleConnsPerHost: c.maxIdleConnsPerHost,
			IdleConnTimeout:     c.idleConnTimeout,
		},
	}
}

// Close releases idle connections held by the session. The client stays
// usable afterwards; the next call opens a fresh session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.CloseIdleConnections()
		c.session = nil
	}
	return nil
}

// Endpoint returns the resolved bridge server base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Metrics returns the client's call metrics recorder.
func (c *Client) Metrics() *Metrics { return c.metrics }

// Ensure Client implements the client ports.
var (
	_ ports.Invoker      = (*Client)(nil)
	_ ports.SchemaSource = (*Client)(nil)
	_ ports.ToolLister   = (*Client)(nil)
)
