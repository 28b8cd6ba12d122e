// Package telemetryx implements core.Telemetry on top of
// go.opentelemetry.io/otel: spans (the registry opens one per tool
// execution) plus simple counter metrics through RecordMetric. With no SDK
// exporter configured by the embedder, the global otel providers default
// to no-ops, so wiring this in is safe even when nothing is listening.
package telemetryx

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/coderift/toolmind/core"
)

// Telemetry wraps an otel tracer and meter scoped to one instrumentation
// name.
type Telemetry struct {
	tracer   trace.Tracer
	meter    metric.Meter
	counters sync.Map // name -> metric.Float64Counter
}

var _ core.Telemetry = (*Telemetry)(nil)

// New builds a Telemetry using the global otel tracer/meter providers
// under instrumentationName.
func New(instrumentationName string) *Telemetry {
	return &Telemetry{
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
}

// StartSpan starts a span named name as a child of ctx.
func (t *Telemetry) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	spanCtx, span := t.tracer.Start(ctx, name)
	return spanCtx, &otelSpan{span: span}
}

// RecordMetric adds value to the named counter, creating it lazily.
func (t *Telemetry) RecordMetric(name string, value float64, labels map[string]string) {
	counter := t.counter(name)
	if counter == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	counter.Add(context.Background(), value, metric.WithAttributes(attrs...))
}

func (t *Telemetry) counter(name string) metric.Float64Counter {
	if v, ok := t.counters.Load(name); ok {
		return v.(metric.Float64Counter)
	}
	counter, err := t.meter.Float64Counter(name)
	if err != nil {
		return nil
	}
	actual, _ := t.counters.LoadOrStore(name, counter)
	return actual.(metric.Float64Counter)
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(toAttribute(key, value))
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
