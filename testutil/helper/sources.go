package helper

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
)

// ScriptedSource is a releasable abortable.Source that hands out a fixed list of values.
//
// After the values it ends with io.EOF, with the configured failure, or it blocks until it is
// released or the context is done. Release can be called concurrently with Next.
type ScriptedSource[T any] struct {
	values       []T
	failure      error
	block        bool
	beforeValue  func(index int)
	releaseErr   error
	pos          int
	mu           sync.Mutex
	released     chan struct{}
	releaseOnce  sync.Once
	releaseCalls atomic.Int32
	nextCalls    atomic.Int32
}

// NewScriptedSource creates a ScriptedSource over values.
func NewScriptedSource[T any](values ...T) *ScriptedSource[T] {
	return &ScriptedSource[T]{
		values:   values,
		released: make(chan struct{}),
	}
}

// FailingWith makes the source return err instead of io.EOF after its values.
func (s *ScriptedSource[T]) FailingWith(err error) *ScriptedSource[T] {
	s.failure = err
	return s
}

// BlockingAfterValues makes the source block after its values until it is released.
func (s *ScriptedSource[T]) BlockingAfterValues() *ScriptedSource[T] {
	s.block = true
	return s
}

// BeforeValue registers a hook that runs right before the value at index is returned.
func (s *ScriptedSource[T]) BeforeValue(hook func(index int)) *ScriptedSource[T] {
	s.beforeValue = hook
	return s
}

// WithReleaseError makes Release return err.
func (s *ScriptedSource[T]) WithReleaseError(err error) *ScriptedSource[T] {
	s.releaseErr = err
	return s
}

// Next implements abortable.Source.
func (s *ScriptedSource[T]) Next(ctx context.Context) (T, error) {
	var zero T

	s.nextCalls.Add(1)

	s.mu.Lock()
	if s.isReleased() {
		s.mu.Unlock()
		return zero, io.EOF
	}

	if s.pos < len(s.values) {
		idx := s.pos
		s.pos++
		value := s.values[idx]
		s.mu.Unlock()

		if s.beforeValue != nil {
			s.beforeValue(idx)
		}

		return value, nil
	}
	s.mu.Unlock()

	switch {
	case s.failure != nil:
		return zero, s.failure
	case s.block:
		select {
		case <-s.released:
			return zero, io.EOF
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	default:
		return zero, io.EOF
	}
}

// Release implements abortable.Releaser.
func (s *ScriptedSource[T]) Release() error {
	s.releaseCalls.Add(1)
	s.releaseOnce.Do(func() {
		close(s.released)
	})

	return s.releaseErr
}

// ReleaseCalls returns how often Release was called.
func (s *ScriptedSource[T]) ReleaseCalls() int {
	return int(s.releaseCalls.Load())
}

// NextCalls returns how often Next was called.
func (s *ScriptedSource[T]) NextCalls() int {
	return int(s.nextCalls.Load())
}

// Released returns a channel that is closed once Release was called.
func (s *ScriptedSource[T]) Released() <-chan struct{} {
	return s.released
}

func (s *ScriptedSource[T]) isReleased() bool {
	select {
	case <-s.released:
		return true
	default:
		return false
	}
}

// Forever returns a source that yields 0, 1, 2, ... with the given pause before every value.
// It never ends on its own.
func Forever(interval time.Duration) abortable.SourceFunc[int] {
	var n atomic.Int64

	return func(ctx context.Context) (int, error) {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		select {
		case <-timer.C:
			return int(n.Add(1) - 1), nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Ensure ScriptedSource implements abortable.Source and abortable.Releaser.
var (
	_ abortable.Source[int] = (*ScriptedSource[int])(nil)
	_ abortable.Releaser    = (*ScriptedSource[int])(nil)
)
