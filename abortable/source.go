package abortable

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"
)

// Source is a pull-based sequence of values.
//
// Next returns the next value, or io.EOF once the sequence is exhausted.
// Any other error is a failure of the sequence itself.
// Sources are single-consumer: Next must not be called concurrently.
type Source[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Releaser is implemented by sources that hold resources which can be given up before exhaustion.
//
// Release may be called while a Next call is still in flight, and it should make that call return.
type Releaser interface {
	Release() error
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc[T any] func(ctx context.Context) (T, error)

// Next calls f(ctx).
func (f SourceFunc[T]) Next(ctx context.Context) (T, error) {
	return f(ctx)
}

// From converts v into a Source.
//
// Accepted are: a Source[T], a []T, an iter.Seq[T] (or a plain func(func(T) bool)),
// a <-chan T or chan T, and a func(context.Context) (T, error).
// Anything else is rejected with ErrNotASequence.
func From[T any](v any) (Source[T], error) {
	switch s := v.(type) {
	case Source[T]:
		return s, nil
	case []T:
		return &sliceSource[T]{values: s}, nil
	case iter.Seq[T]:
		return newSeqSource(s), nil
	case func(yield func(T) bool):
		return newSeqSource(iter.Seq[T](s)), nil
	case <-chan T:
		return &chanSource[T]{ch: s}, nil
	case chan T:
		return &chanSource[T]{ch: s}, nil
	case func(context.Context) (T, error):
		return SourceFunc[T](s), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotASequence, v)
	}
}

// sliceSource is a finite in-memory sequence, nothing to release.
type sliceSource[T any] struct {
	values []T
	pos    int
}

func (s *sliceSource[T]) Next(_ context.Context) (T, error) {
	if s.pos >= len(s.values) {
		var zero T
		return zero, io.EOF
	}

	v := s.values[s.pos]
	s.pos++

	return v, nil
}

// chanSource reads from a channel the caller owns; a closed channel ends the sequence.
type chanSource[T any] struct {
	ch <-chan T
}

func (s *chanSource[T]) Next(ctx context.Context) (T, error) {
	var zero T

	select {
	case v, ok := <-s.ch:
		if !ok {
			return zero, io.EOF
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// seqSource drives a push iterator from a producer goroutine.
// Release stops the producer at its next yield.
type seqSource[T any] struct {
	seq       iter.Seq[T]
	values    chan T
	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func newSeqSource[T any](seq iter.Seq[T]) *seqSource[T] {
	return &seqSource[T]{
		seq:    seq,
		values: make(chan T),
		stop:   make(chan struct{}),
	}
}

func (s *seqSource[T]) start() {
	go func() {
		defer close(s.values)

		s.seq(func(v T) bool {
			select {
			case s.values <- v:
				return true
			case <-s.stop:
				return false
			}
		})
	}()
}

func (s *seqSource[T]) Next(ctx context.Context) (T, error) {
	var zero T

	s.startOnce.Do(s.start)

	select {
	case v, ok := <-s.values:
		if !ok || s.stopped() {
			return zero, io.EOF
		}
		return v, nil
	case <-s.stop:
		return zero, io.EOF
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *seqSource[T]) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *seqSource[T]) Release() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	return nil
}
