package abortable

import (
	"context"
	"math"
	"strconv"
	"time"
)

const (
	spanNameSource = "abortable.source"

	metricStreamDuration = "abortable_stream_duration_seconds"
	metricAborts         = "abortable_aborts_total"
	metricCompletions    = "abortable_completions_total"
	metricFailures       = "abortable_failures_total"
	metricReleaseErrors  = "abortable_release_errors_total"
	metricValuesYielded  = "abortable_values_yielded"

	statusCompleted = "completed"
	statusCancelled = "cancelled"
	statusError     = "error"
	statusReleased  = "released"

	logMsgOperation      = "abortable operation: "
	logMsgSubscribed     = "subscribed to signals"
	logMsgUnsubscribed   = "unsubscribed from signals"
	logMsgAborted        = "aborted"
	logMsgCompleted      = "completed"
	logMsgReleased       = "released"
	logMsgSourceFailed   = "underlying source failed"
	logMsgReleaseFailed  = "failed to release underlying source"
	logAttrName          = "name"
	logAttrError         = "error"
	logAttrSignalCount   = "signal_count"
	logAttrSignalIndex   = "signal_index"
	logAttrAbortCode     = "abort_code"
	logAttrValuesYielded = "values_yielded"
	logAttrDurationMS    = "duration_ms"
	logAttrReturnOnAbort = "return_on_abort"

	spanAttrName          = "name"
	spanAttrStatus        = "status"
	spanAttrSignalCount   = "signal_count"
	spanAttrAbortCode     = "abort_code"
	spanAttrValuesYielded = "values_yielded"
	spanAttrDurationMS    = "duration_ms"
)

// Logger interface for debug and operational logging, warnings, and error reporting.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// This interface follows the same dependency-free pattern as MetricsCollector and TracingCollector,
// allowing users to integrate with any logging backend that supports context-based correlation.
// *slog.Logger satisfies it.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting stream lifecycle metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods for better tracing integration.
// It is optional: the context-aware methods are used when available, with a fallback to MetricsCollector.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information.
// Implement it to integrate with any tracing backend; see the oteladapters package for OpenTelemetry.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// observer bundles the optional observability collaborators of one wrap.
type observer struct {
	name             string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

func (o observer) logDebug(ctx context.Context, msg string, args ...any) {
	args = append([]any{logAttrName, o.name}, args...)

	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

// logOperation logs a terminal state at info level.
func (o observer) logOperation(ctx context.Context, action string, args ...any) {
	args = append([]any{logAttrName, o.name}, args...)

	if o.logger != nil {
		o.logger.Info(logMsgOperation+action, args...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

func (o observer) logWarn(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrName, o.name, logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if o.logger != nil {
		o.logger.Warn(msg, allArgs...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.WarnContext(ctx, msg, allArgs...)
	}
}

func (o observer) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrName, o.name, logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if o.logger != nil {
		o.logger.Error(msg, allArgs...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

func (o observer) labels(status string) map[string]string {
	return map[string]string{
		spanAttrName:   o.name,
		spanAttrStatus: status,
	}
}

// incrementCounter uses the context-aware method if the collector supports it.
func (o observer) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.metricsCollector.IncrementCounter(metric, labels)
}

// recordTerminal records the duration, the yielded value count and the counter matching the terminal status.
func (o observer) recordTerminal(ctx context.Context, counter, status string, duration time.Duration, values int) {
	if o.metricsCollector == nil {
		return
	}

	labels := o.labels(status)

	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricStreamDuration, duration, labels)
		contextualCollector.RecordValueContext(ctx, metricValuesYielded, float64(values), labels)
	} else {
		o.metricsCollector.RecordDuration(metricStreamDuration, duration, labels)
		o.metricsCollector.RecordValue(metricValuesYielded, float64(values), labels)
	}

	o.incrementCounter(ctx, counter, labels)
}

func (o observer) startSpan(ctx context.Context, signalCount int) (context.Context, SpanContext) {
	if o.tracingCollector == nil {
		return ctx, nil
	}

	return o.tracingCollector.StartSpan(ctx, spanNameSource, map[string]string{
		spanAttrName:        o.name,
		spanAttrSignalCount: strconv.Itoa(signalCount),
	})
}

func (o observer) finishSpan(span SpanContext, status string, attrs map[string]string) {
	if o.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(status)
	o.tracingCollector.FinishSpan(span, status, attrs)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
