// Package telemetry defines the logging, metrics, and tracing seams shared
// by every agent process. Interfaces are deliberately narrow so production
// code can be exercised against no-op implementations in tests.
package telemetry

import "context"

// Logger emits structured, leveled log lines. Fields are passed as
// alternating key/value pairs, matching the clue/log.KV convention.
type Logger interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
}

// Metrics records counters, timers, and gauges tagged with key/value pairs.
type Metrics interface {
	IncCounter(name string, tags ...any)
	RecordTimer(name string, seconds float64, tags ...any)
	RecordGauge(name string, value float64, tags ...any)
}

// Tracer starts spans for skill invocations and outbound dependency calls.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Span is a single unit of traced work.
type Span interface {
	End()
	AddEvent(name string, kv ...any)
	SetStatus(ok bool, description string)
	RecordError(err error)
}
