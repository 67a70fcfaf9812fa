package telemetry

import (
	"context"
	"fmt"

	"goa.design/clue/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/JyX33/agentic-technical-watch-sub000"

// ClueLogger delegates to goa.design/clue/log, the logging library every
// agent in the teacher repo uses.
type ClueLogger struct{}

func NewClueLogger() *ClueLogger { return &ClueLogger{} }

func (l *ClueLogger) Debug(ctx context.Context, msg string, kv ...any) {
	log.Debug(ctx, msg, kvSliceToClue(kv)...)
}

func (l *ClueLogger) Info(ctx context.Context, msg string, kv ...any) {
	log.Info(ctx, msg, kvSliceToClue(kv)...)
}

func (l *ClueLogger) Warn(ctx context.Context, msg string, kv ...any) {
	fields := append(kvSliceToClue(kv), log.KV{K: "severity", V: "warning"})
	log.Info(ctx, msg, fields...)
}

func (l *ClueLogger) Error(ctx context.Context, msg string, kv ...any) {
	log.Error(ctx, nil, msg, kvSliceToClue(kv)...)
}

// ClueMetrics records via the global OTel meter, matching the teacher's
// ClueMetrics. OTel has no synchronous gauge instrument, so RecordGauge
// synthesizes one with a histogram suffixed "_gauge" — the same workaround
// the teacher uses.
type ClueMetrics struct {
	meter otelmetric.Meter
}

func NewClueMetrics() *ClueMetrics {
	return &ClueMetrics{meter: otel.Meter(instrumentationName)}
}

func (m *ClueMetrics) IncCounter(name string, tags ...any) {
	counter, err := m.meter.Float64Counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), 1, otelmetric.WithAttributes(tagsToAttrs(tags)...))
}

func (m *ClueMetrics) RecordTimer(name string, seconds float64, tags ...any) {
	hist, err := m.meter.Float64Histogram(name)
	if err != nil {
		return
	}
	hist.Record(context.Background(), seconds, otelmetric.WithAttributes(tagsToAttrs(tags)...))
}

func (m *ClueMetrics) RecordGauge(name string, value float64, tags ...any) {
	hist, err := m.meter.Float64Histogram(name + "_gauge")
	if err != nil {
		return
	}
	hist.Record(context.Background(), value, otelmetric.WithAttributes(tagsToAttrs(tags)...))
}

// ClueTracer starts spans via the global OTel tracer.
type ClueTracer struct {
	tracer oteltrace.Tracer
}

func NewClueTracer() *ClueTracer {
	return &ClueTracer{tracer: otel.Tracer(instrumentationName)}
}

func (t *ClueTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &clueSpan{span: span}
}

type clueSpan struct {
	span oteltrace.Span
}

func (s *clueSpan) End() { s.span.End() }

func (s *clueSpan) AddEvent(name string, kv ...any) {
	s.span.AddEvent(name, oteltrace.WithAttributes(tagsToAttrs(kv)...))
}

func (s *clueSpan) SetStatus(ok bool, description string) {
	if ok {
		s.span.SetStatus(1, description) // codes.Ok
		return
	}
	s.span.SetStatus(2, description) // codes.Error
}

func (s *clueSpan) RecordError(err error) {
	s.span.RecordError(err)
}

func kvSliceToClue(kv []any) []log.Fielder {
	fields := make([]log.Fielder, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, log.KV{K: key, V: kv[i+1]})
	}
	return fields
}

func tagsToAttrs(tags []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		key, ok := tags[i].(string)
		if !ok {
			continue
		}
		switch v := tags[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		default:
			attrs = append(attrs, attribute.String(key, toString(v)))
		}
	}
	return attrs
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}
