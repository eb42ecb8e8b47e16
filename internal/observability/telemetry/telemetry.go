// Package telemetry is the runtime's ambient structured-logging/metrics/
// tracing abstraction. Not a spec module in its own right — every spec
// component that needs to log or trace depends on these small interfaces
// rather than a concrete backend. Grounded directly on
// runtime/agents/telemetry/telemetry.go.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the runtime.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, err error, keyvals ...any)
}

// Metrics exposes counter/timer/gauge helpers for runtime instrumentation.
// Distinct from observability/metrics, which is the spec's own per-tool
// counters/latency component (§4.P) — this interface is the ambient hook
// components use to report *their own* operational signal.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}
