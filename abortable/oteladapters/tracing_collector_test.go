package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/abortable-streams-go/abortable/oteladapters"
)

func newTestTracer() (*tracetest.InMemoryExporter, oteltrace.Tracer) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(trace.WithSyncer(exporter))

	return exporter, provider.Tracer("test")
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	exporter, tracer := newTestTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	ctx, spanCtx := collector.StartSpan(context.Background(), "abortable.source", map[string]string{
		"name":         "numbers",
		"signal_count": "2",
	})

	assert.NotNil(t, ctx)
	assert.True(t, oteltrace.SpanFromContext(ctx).SpanContext().IsValid(), "the returned context should carry the span")

	collector.FinishSpan(spanCtx, "completed", map[string]string{"values_yielded": "3"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "abortable.source", span.Name)
	assertSpanHasAttribute(t, span, "name", "numbers")
	assertSpanHasAttribute(t, span, "signal_count", "2")
	assertSpanHasAttribute(t, span, "values_yielded", "3")
	assert.Equal(t, codes.Ok, span.Status.Code)
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status       string
		expectedCode codes.Code
	}{
		{status: "completed", expectedCode: codes.Ok},
		{status: "released", expectedCode: codes.Ok},
		{status: "cancelled", expectedCode: codes.Error},
		{status: "error", expectedCode: codes.Error},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			exporter, tracer := newTestTracer()
			collector := oteladapters.NewTracingCollector(tracer)

			_, spanCtx := collector.StartSpan(context.Background(), "test", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_UnknownStatus(t *testing.T) {
	exporter, tracer := newTestTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	_, spanCtx := collector.StartSpan(context.Background(), "test", nil)
	collector.FinishSpan(spanCtx, "paused", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assertSpanHasAttribute(t, spans[0], "status", "paused")
}

func Test_TracingCollector_IgnoresForeignSpanContexts(t *testing.T) {
	exporter, tracer := newTestTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	assert.NotPanics(t, func() {
		collector.FinishSpan(nil, "completed", nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func Test_OTelSpanContext_AddAttribute(t *testing.T) {
	exporter, tracer := newTestTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	_, spanCtx := collector.StartSpan(context.Background(), "test", nil)
	spanCtx.AddAttribute("abort_code", "ERR_STOP")
	collector.FinishSpan(spanCtx, "cancelled", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assertSpanHasAttribute(t, spans[0], "abort_code", "ERR_STOP")
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, expectedValue string) {
	t.Helper()
	found := false
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) && attr.Value.AsString() == expectedValue {
			found = true
			break
		}
	}
	assert.True(t, found, "Span should have attribute %s=%s", key, expectedValue)
}
