package adapters

import (
	"context"
	"time"

	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// spanKey carries the span logger through the context.
type spanKey struct{}

// ZerologTracer implements the Tracer interface using zerolog.
type ZerologTracer struct {
	logger zerolog.Logger
}

// NewZerologTracer creates a new zerolog tracer.
func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{
		logger: logger,
	}
}

// StartSpan starts a new tracing span and returns the context and finish function.
func (t *ZerologTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	spanID := uuid.NewString()

	spanLogger := t.logger.With().
		Str("span", name).
		Str("span_id", spanID).
		Logger()

	for k, v := range attrs {
		spanLogger = spanLogger.With().Interface(k, v).Logger()
	}

	ctx = context.WithValue(ctx, spanKey{}, spanLogger)

	start := time.Now()
	spanLogger.Debug().Msg("span started")

	finish := func(err error) {
		event := spanLogger.Info()
		if err != nil {
			event = spanLogger.Error().Err(err)
		}
		event.Dur("duration", time.Since(start)).Msg("span finished")
	}

	return ctx, finish
}

// Event logs a tracing event against the span in ctx, or the base logger
// when no span is active.
func (t *ZerologTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	logger, ok := ctx.Value(spanKey{}).(zerolog.Logger)
	if !ok {
		logger = t.logger
	}

	event := logger.Info()
	for k, v := range attrs {
		event = event.Interface(k, v)
	}
	event.Str("event", name).Msg("trace event")
}

// Ensure ZerologTracer implements the Tracer interface.
var _ ports.Tracer = (*ZerologTracer)(nil)
