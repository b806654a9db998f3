package main

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// inProcessTelemetry installs SDK providers that keep spans and metrics in memory,
// so the demo can print what the adapters reported without an external collector.
type inProcessTelemetry struct {
	spans          *tracetest.SpanRecorder
	reader         *sdkmetric.ManualReader
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

func setupTelemetry() *inProcessTelemetry {
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	telemetry := &inProcessTelemetry{
		spans:          spans,
		reader:         reader,
		tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}

	otel.SetTracerProvider(telemetry.tracerProvider)
	otel.SetMeterProvider(telemetry.meterProvider)

	return telemetry
}

// report logs every finished span and the collected metrics.
func (t *inProcessTelemetry) report(ctx context.Context, logger *slog.Logger) error {
	for _, span := range t.spans.Ended() {
		attrs := []any{"span", span.Name(), "status", span.Status().Code.String()}
		for _, kv := range span.Attributes() {
			attrs = append(attrs, string(kv.Key), kv.Value.Emit())
		}

		logger.Info("span finished", attrs...)
	}

	var collected metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &collected); err != nil {
		return err
	}

	for _, scope := range collected.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					logger.Info("metric collected", append([]any{"metric", m.Name, "value", dp.Value}, labelsOf(dp.Attributes)...)...)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					logger.Info("metric collected", append([]any{"metric", m.Name, "count", dp.Count, "sum", dp.Sum}, labelsOf(dp.Attributes)...)...)
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					logger.Info("metric collected", append([]any{"metric", m.Name, "value", dp.Value}, labelsOf(dp.Attributes)...)...)
				}
			}
		}
	}

	return nil
}

// labelsOf renders the name and status labels the abortable metrics carry.
func labelsOf(set attribute.Set) []any {
	var labels []any

	for _, kv := range set.ToSlice() {
		labels = append(labels, string(kv.Key), kv.Value.Emit())
	}

	return labels
}

func (t *inProcessTelemetry) shutdown(ctx context.Context) error {
	return errors.Join(t.tracerProvider.Shutdown(ctx), t.meterProvider.Shutdown(ctx))
}
