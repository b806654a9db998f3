package abortable

import (
	"context"
	"errors"
	"io"
	"slices"
)

// Sink consumes a Source and produces a result.
type Sink[T, R any] func(ctx context.Context, source Source[T]) (R, error)

// WrapSink returns a Sink that feeds sink a cancellable view of its input, using a single signal.
func WrapSink[T, R any](sink Sink[T, R], signal Signal, opts Options[T], options ...Option) (Sink[T, R], error) {
	return WrapSinkSignals(sink, []Binding[T]{{Signal: signal, Options: opts}}, options...)
}

// WrapSinkSignals returns a Sink that wraps its input with the given bindings before handing it to sink.
//
// The result and the error of sink are returned unchanged. When sink returns without having
// drained its input, the input's signal subscriptions are dropped; the input itself is not
// released, it belongs to the caller.
func WrapSinkSignals[T, R any](sink Sink[T, R], bindings []Binding[T], options ...Option) (Sink[T, R], error) {
	return wrapSink(sink, bindings, options, true)
}

// WrapTransform is WrapSink for sinks that themselves produce a Source.
func WrapTransform[In, Out any](transform Sink[In, Source[Out]], signal Signal, opts Options[In], options ...Option) (Sink[In, Source[Out]], error) {
	return WrapTransformSignals(transform, []Binding[In]{{Signal: signal, Options: opts}}, options...)
}

// WrapTransformSignals is WrapSinkSignals for sinks that themselves produce a Source.
//
// The returned output usually pulls from the wrapped input lazily, so the input stays
// subscribed until it reaches a terminal state or the output consumer releases it.
func WrapTransformSignals[In, Out any](transform Sink[In, Source[Out]], bindings []Binding[In], options ...Option) (Sink[In, Source[Out]], error) {
	return wrapSink(transform, bindings, options, false)
}

func wrapSink[T, R any](sink Sink[T, R], bindings []Binding[T], options []Option, detach bool) (Sink[T, R], error) {
	if sink == nil {
		return nil, ErrNilSink
	}

	if err := validateBindings(bindings); err != nil {
		return nil, err
	}

	if _, err := buildConfig(options); err != nil {
		return nil, err
	}

	bindings = slices.Clone(bindings)

	return func(ctx context.Context, source Source[T]) (R, error) {
		it, err := newIterator(source, bindings, options)
		if err != nil {
			var zero R
			return zero, err
		}

		if detach {
			defer func() { _ = it.stop(ctx, false) }()
		}

		return sink(ctx, it)
	}, nil
}

// Drain pulls source until it ends and returns the number of values seen.
// io.EOF is not reported as an error.
func Drain[T any](ctx context.Context, source Source[T]) (int, error) {
	count := 0

	for {
		_, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return count, nil
		}

		if err != nil {
			return count, err
		}

		count++
	}
}

// Collect pulls source until it ends and returns all values seen, also when it fails.
func Collect[T any](ctx context.Context, source Source[T]) ([]T, error) {
	var values []T

	for {
		value, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return values, nil
		}

		if err != nil {
			return values, err
		}

		values = append(values, value)
	}
}

var (
	_ Sink[any, int]   = Drain[any]
	_ Sink[any, []any] = Collect[any]
)
