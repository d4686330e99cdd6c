package client

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/toolbridge/bridge/client/adapters"
	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
	"github.com/ZanzyTHEbar/toolbridge/bridge/config"
	"github.com/rs/zerolog"
)

// Factory creates and wires a Client from configuration.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewFactory creates a new client factory.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a fully wired Client from config. Out-of-range
// values are clamped to their defaults with a warning.
func (f *Factory) CreateClient() *Client {
	bc := f.cfg.Bridge

	maxRetries := bc.MaxRetries
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
		f.logger.Warn().Int("max_retries", bc.MaxRetries).Msg("max_retries clamped to default")
	}
	retryDelay := bc.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
		f.logger.Warn().Dur("retry_delay", bc.RetryDelay).Msg("retry_delay clamped to default")
	}
	callTimeout := bc.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
		f.logger.Warn().Dur("call_timeout", bc.CallTimeout).Msg("call_timeout clamped to default")
	}
	concurrency := bc.ToolConcurrency
	if concurrency < 1 {
		concurrency = DefaultToolConcurrency
		f.logger.Warn().Int("tool_concurrency", bc.ToolConcurrency).Msg("tool_concurrency clamped to default")
	}

	return New(Settings{
		Endpoint:            bc.Endpoint,
		MaxRetries:          maxRetries,
		RetryDelay:          retryDelay,
		CallTimeout:         callTimeout,
		ToolConcurrency:     concurrency,
		MaxIdleConns:        f.cfg.Session.MaxIdleConns,
		MaxIdleConnsPerHost: f.cfg.Session.MaxIdleConnsPerHost,
		IdleConnTimeout:     f.cfg.Session.IdleConnTimeout,
		Tracer:              f.createTracer(),
		SchemaCache:         f.createSchemaCache(),
		SchemaTTL:           bc.SchemaCacheTTL,
		Limiter:             f.createRateLimiter(),
		Metrics:             NewMetrics(f.cfg.Telemetry.EnableMetrics),
	})
}

// createSchemaCache creates the schema cache adapter from config.
func (f *Factory) createSchemaCache() ports.Cache {
	if !f.cfg.Bridge.SchemaCacheEnabled {
		return &noOpCache{}
	}

	return adapters.NewLRUCache(f.cfg.Bridge.SchemaCacheCapacity)
}

// createRateLimiter creates the rate limiter adapter from config.
func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.Bridge.RateLimitEnabled {
		return &noOpRateLimiter{}
	}

	return adapters.NewTokenBucket(f.cfg.Bridge.RateLimitCapacity, f.cfg.Bridge.RateLimitRefillRate)
}

// createTracer creates the tracer adapter from config.
func (f *Factory) createTracer() ports.Tracer {
	if !f.cfg.Telemetry.EnableTracing {
		return &noOpTracer{}
	}

	return adapters.NewZerologTracer(f.logger)
}

// noOpCache implements Cache with no-op behavior for disabled caching.
type noOpCache struct{}

func (c *noOpCache) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (c *noOpCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (c *noOpCache) Delete(ctx context.Context, key string) error { return nil }

// noOpRateLimiter implements RateLimiter with no-op behavior.
type noOpRateLimiter struct{}

func (r *noOpRateLimiter) Acquire(ctx context.Context, key string) (release func(), err error) {
	return func() {}, nil
}

// noOpTracer implements Tracer with no-op behavior.
type noOpTracer struct{}

func (t *noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (t *noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

// Ensure all no-op types implement their interfaces.
var (
	_ ports.Cache       = (*noOpCache)(nil)
	_ ports.RateLimiter = (*noOpRateLimiter)(nil)
	_ ports.Tracer      = (*noOpTracer)(nil)
)
