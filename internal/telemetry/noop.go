package telemetry

import "context"

// NoopLogger discards everything; used by tests and as a constructor
// fallback when no logger is supplied.
type NoopLogger struct{}

func NewNoopLogger() *NoopLogger { return &NoopLogger{} }

func (NoopLogger) Debug(context.Context, string, ...any) {}
func (NoopLogger) Info(context.Context, string, ...any)  {}
func (NoopLogger) Warn(context.Context, string, ...any)  {}
func (NoopLogger) Error(context.Context, string, ...any) {}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics { return &NoopMetrics{} }

func (NoopMetrics) IncCounter(string, ...any)            {}
func (NoopMetrics) RecordTimer(string, float64, ...any)  {}
func (NoopMetrics) RecordGauge(string, float64, ...any)  {}

// NoopTracer returns spans that do nothing.
type NoopTracer struct{}

func NewNoopTracer() *NoopTracer { return &NoopTracer{} }

func (NoopTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                            {}
func (noopSpan) AddEvent(string, ...any)         {}
func (noopSpan) SetStatus(bool, string)          {}
func (noopSpan) RecordError(error)               {}
