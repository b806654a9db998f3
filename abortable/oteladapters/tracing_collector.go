package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
)

// TracingCollector implements abortable.TracingCollector using the OpenTelemetry tracing API.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a tracing collector that starts its spans from tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span named name, carrying attrs.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, abortable.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds attrs, sets the status and ends the span.
// Span contexts that were not created by a TracingCollector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx abortable.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(attributes(attrs)...)
	otelSpanCtx.setSpanStatus(status)
	otelSpanCtx.span.End()
}

// Ensure TracingCollector implements abortable.TracingCollector.
var _ abortable.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext implements abortable.SpanContext by wrapping an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps status to an OpenTelemetry status code.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status)
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// setSpanStatus treats a consumer release like a completion; a cancellation is an error.
func (s *OTelSpanContext) setSpanStatus(status string) {
	switch status {
	case "completed", "released":
		s.span.SetStatus(codes.Ok, "")
	case "cancelled":
		s.span.SetStatus(codes.Error, "Stream aborted")
	case "error":
		s.span.SetStatus(codes.Error, "Underlying source failed")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// Ensure OTelSpanContext implements abortable.SpanContext.
var _ abortable.SpanContext = (*OTelSpanContext)(nil)

// Options returns the abortable options that wire tracer, meter and the global OpenTelemetry
// LoggerProvider (through the slog bridge, under loggerName) into a wrap.
func Options(tracer trace.Tracer, meter metric.Meter, loggerName string) []abortable.Option {
	return []abortable.Option{
		abortable.WithTracing(NewTracingCollector(tracer)),
		abortable.WithMetrics(NewMetricsCollector(meter)),
		abortable.WithContextualLogger(NewSlogBridgeLogger(loggerName)),
	}
}
