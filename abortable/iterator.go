package abortable

import (
	"context"
	"errors"
	"io"
	"iter"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Iterator is the cancellable view of a Source returned by WrapSource and WrapSourceSignals.
//
// It subscribes to its signals on the first call to Next and unsubscribes before it reports
// any terminal state: io.EOF on exhaustion, an *AbortError on cancellation, or the error of the
// underlying source. Once terminal, Next keeps returning the same terminal result.
//
// Like every Source, an Iterator is single-consumer. Release may be called from another
// goroutine, also while a Next is in flight, which makes an Iterator usable as the input
// of another wrap.
type Iterator[T any] struct {
	source   Source[T]
	owned    bool
	bindings []Binding[T]
	observer observer

	notify   chan struct{}
	released chan struct{}

	// mu guards the subscription and the terminal transition.
	mu            sync.Mutex
	subscriptions []SubscriptionID
	subscribed    bool
	finished      bool
	terminalErr   error

	count     atomic.Int64
	startedAt time.Time
	span      SpanContext
}

type pullResult[T any] struct {
	value T
	err   error
}

// WrapSource makes source cancellable by a single signal.
// source must be convertible by From, otherwise ErrNotASequence is returned.
func WrapSource[T any](source any, signal Signal, opts Options[T], options ...Option) (*Iterator[T], error) {
	return WrapSourceSignals(source, []Binding[T]{{Signal: signal, Options: opts}}, options...)
}

// WrapSourceSignals makes source cancellable by any of the given signals.
//
// When several signals have fired, the first one in binding order determines the
// code, the message and the hooks of the cancellation.
func WrapSourceSignals[T any](source any, bindings []Binding[T], options ...Option) (*Iterator[T], error) {
	src, err := From[T](source)
	if err != nil {
		return nil, err
	}

	it, err := newIterator(src, bindings, options)
	if err != nil {
		return nil, err
	}

	// sources converted by From are not reachable by the caller, so the iterator releases them on failure
	_, isSource := source.(Source[T])
	it.owned = !isSource

	return it, nil
}

func newIterator[T any](source Source[T], bindings []Binding[T], options []Option) (*Iterator[T], error) {
	if err := validateBindings(bindings); err != nil {
		return nil, err
	}

	cfg, err := buildConfig(options)
	if err != nil {
		return nil, err
	}

	return &Iterator[T]{
		source:   source,
		bindings: slices.Clone(bindings),
		observer: cfg.observer,
		notify:   make(chan struct{}, 1),
		released: make(chan struct{}),
	}, nil
}

// Next returns the next value of the underlying source, racing the pull against the bound signals.
//
// A value that arrives while a signal has already fired is discarded, cancellation wins.
// The pull itself is never interrupted: it keeps running in the background until the
// underlying source returns, and its result is ignored.
func (it *Iterator[T]) Next(ctx context.Context) (T, error) {
	var zero T

	if finished, err := it.terminal(); finished {
		return zero, err
	}

	it.subscribe(ctx)

	if idx := it.firstAborted(); idx >= 0 {
		return zero, it.abort(ctx, idx)
	}

	results := make(chan pullResult[T], 1)
	go func() {
		value, err := it.source.Next(ctx)
		results <- pullResult[T]{value: value, err: err}
	}()

	for {
		select {
		case res := <-results:
			if idx := it.firstAborted(); idx >= 0 {
				return zero, it.abort(ctx, idx)
			}

			switch {
			case res.err == nil:
				if finished, err := it.terminal(); finished {
					return zero, err
				}

				it.count.Add(1)

				return res.value, nil
			case errors.Is(res.err, io.EOF):
				return zero, it.complete(ctx)
			default:
				return zero, it.fail(ctx, res.err)
			}

		case <-it.notify:
			if idx := it.firstAborted(); idx >= 0 {
				return zero, it.abort(ctx, idx)
			}

		case <-it.released:
			_, err := it.terminal()
			return zero, err

		case <-ctx.Done():
			if idx := it.firstAborted(); idx >= 0 {
				return zero, it.abort(ctx, idx)
			}

			return zero, it.fail(ctx, ctx.Err())
		}
	}
}

// Release stops the sequence early on behalf of the consumer.
//
// It unsubscribes from all signals and releases the underlying source, returning the error of
// that release. No hooks run and no AbortError is produced; a pending and all subsequent calls
// to Next return io.EOF. Release is a no-op once the iterator reached a terminal state.
func (it *Iterator[T]) Release() error {
	return it.stop(context.Background(), true)
}

// All returns the remaining values as a range-over-func sequence.
//
// The sequence ends silently on exhaustion. Any other terminal error, including an *AbortError,
// is yielded once as the last element. Breaking out of the loop releases the iterator.
func (it *Iterator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			value, err := it.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				yield(value, err)
				return
			}

			if !yield(value, nil) {
				_ = it.Release()
				return
			}
		}
	}
}

// Count returns the number of values handed out so far.
func (it *Iterator[T]) Count() int {
	return int(it.count.Load())
}

func (it *Iterator[T]) subscribe(ctx context.Context) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.subscribed || it.finished {
		return
	}

	it.subscribed = true
	it.startedAt = time.Now()
	_, it.span = it.observer.startSpan(ctx, len(it.bindings))

	// One shared handler for all signals. The buffer keeps at most one pending wake-up,
	// the bindings are rescanned on every wake-up anyway.
	notify := it.notify
	handler := func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	}

	it.subscriptions = make([]SubscriptionID, len(it.bindings))
	for i, b := range it.bindings {
		it.subscriptions[i] = b.Signal.Subscribe(handler)
	}

	it.observer.logDebug(ctx, logMsgSubscribed, logAttrSignalCount, len(it.bindings))
}

// unsubscribe is only called by the winner of the terminal transition.
func (it *Iterator[T]) unsubscribe(ctx context.Context) {
	if it.subscriptions == nil {
		return
	}

	for i, id := range it.subscriptions {
		it.bindings[i].Signal.Unsubscribe(id)
	}

	it.subscriptions = nil
	it.observer.logDebug(ctx, logMsgUnsubscribed, logAttrSignalCount, len(it.bindings))
}

// firstAborted returns the index of the first binding whose signal fired, or -1.
func (it *Iterator[T]) firstAborted() int {
	for i, b := range it.bindings {
		if b.Signal.Aborted() {
			return i
		}
	}

	return -1
}

func (it *Iterator[T]) terminal() (bool, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	return it.finished, it.terminalErr
}

// terminate moves the iterator into its terminal state. Exactly one caller wins,
// all others get false and must not produce any side effects.
func (it *Iterator[T]) terminate(err error) bool {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.finished {
		return false
	}

	it.finished = true
	it.terminalErr = err

	return true
}

func (it *Iterator[T]) elapsed() time.Duration {
	if it.startedAt.IsZero() {
		return 0
	}

	return time.Since(it.startedAt)
}

func (it *Iterator[T]) abort(ctx context.Context, idx int) error {
	opts := it.bindings[idx].Options
	abortErr := NewAbortError(opts.AbortMessage, opts.AbortCode)

	var result error = abortErr
	if opts.ReturnOnAbort {
		result = io.EOF
	}

	if !it.terminate(result) {
		_, err := it.terminal()
		return err
	}

	it.unsubscribe(ctx)
	it.cleanup(ctx, opts)

	count := it.Count()
	duration := it.elapsed()
	it.observer.logOperation(ctx, logMsgAborted,
		logAttrSignalIndex, idx,
		logAttrAbortCode, abortErr.Code(),
		logAttrReturnOnAbort, opts.ReturnOnAbort,
		logAttrValuesYielded, count,
		logAttrDurationMS, toMilliseconds(duration))
	it.observer.recordTerminal(ctx, metricAborts, statusCancelled, duration, count)
	it.observer.finishSpan(it.span, statusCancelled, map[string]string{
		spanAttrAbortCode:     abortErr.Code(),
		spanAttrValuesYielded: strconv.Itoa(count),
		spanAttrDurationMS:    strconv.FormatFloat(toMilliseconds(duration), 'f', 2, 64),
	})

	return result
}

// cleanup runs the OnAbort hook and then releases the underlying source.
// The release also happens when the hook panics.
func (it *Iterator[T]) cleanup(ctx context.Context, opts Options[T]) {
	defer it.releaseAfterAbort(ctx, opts.OnReturnError)

	if opts.OnAbort != nil {
		opts.OnAbort(it.source)
	}
}

// releaseAfterAbort never lets a release failure replace the AbortError.
func (it *Iterator[T]) releaseAfterAbort(ctx context.Context, onReturnError func(err error)) {
	releaser, ok := it.source.(Releaser)
	if !ok {
		return
	}

	if err := releaser.Release(); err != nil {
		it.observer.incrementCounter(ctx, metricReleaseErrors, it.observer.labels(statusCancelled))

		if onReturnError != nil {
			onReturnError(err)
			return
		}

		it.observer.logWarn(ctx, logMsgReleaseFailed, err)
	}
}

func (it *Iterator[T]) complete(ctx context.Context) error {
	if !it.terminate(io.EOF) {
		_, err := it.terminal()
		return err
	}

	it.unsubscribe(ctx)

	count := it.Count()
	duration := it.elapsed()
	it.observer.logOperation(ctx, logMsgCompleted,
		logAttrValuesYielded, count,
		logAttrDurationMS, toMilliseconds(duration))
	it.observer.recordTerminal(ctx, metricCompletions, statusCompleted, duration, count)
	it.observer.finishSpan(it.span, statusCompleted, map[string]string{
		spanAttrValuesYielded: strconv.Itoa(count),
	})

	return io.EOF
}

func (it *Iterator[T]) fail(ctx context.Context, err error) error {
	if !it.terminate(err) {
		_, terminalErr := it.terminal()
		return terminalErr
	}

	it.unsubscribe(ctx)
	it.releaseOwned(ctx)

	count := it.Count()
	duration := it.elapsed()
	it.observer.logError(ctx, logMsgSourceFailed, err,
		logAttrValuesYielded, count,
		logAttrDurationMS, toMilliseconds(duration))
	it.observer.recordTerminal(ctx, metricFailures, statusError, duration, count)
	it.observer.finishSpan(it.span, statusError, map[string]string{
		spanAttrValuesYielded: strconv.Itoa(count),
	})

	return err
}

// releaseOwned stops sources that were converted by From, e.g. the producer goroutine of an iter.Seq.
func (it *Iterator[T]) releaseOwned(ctx context.Context) {
	if !it.owned {
		return
	}

	releaser, ok := it.source.(Releaser)
	if !ok {
		return
	}

	if err := releaser.Release(); err != nil {
		it.observer.logWarn(ctx, logMsgReleaseFailed, err)
	}
}

// stop ends the sequence without an error. The underlying source is only released when release is set.
func (it *Iterator[T]) stop(ctx context.Context, release bool) error {
	if !it.terminate(io.EOF) {
		return nil
	}

	it.unsubscribe(ctx)
	close(it.released)

	var err error
	if releaser, ok := it.source.(Releaser); ok && release {
		err = releaser.Release()
	}

	if !it.subscribed {
		return err
	}

	count := it.Count()
	duration := it.elapsed()
	it.observer.logOperation(ctx, logMsgReleased,
		logAttrValuesYielded, count,
		logAttrDurationMS, toMilliseconds(duration))
	it.observer.recordTerminal(ctx, metricCompletions, statusReleased, duration, count)
	it.observer.finishSpan(it.span, statusReleased, map[string]string{
		spanAttrValuesYielded: strconv.Itoa(count),
	})

	return err
}
