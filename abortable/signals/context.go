package signals

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
)

// ContextSignal is a Signal that fires when its context is done.
type ContextSignal struct {
	ctx   context.Context
	mu    sync.Mutex
	stops map[abortable.SubscriptionID]func() bool
}

// FromContext creates a Signal that fires when ctx is cancelled or its deadline passes.
func FromContext(ctx context.Context) *ContextSignal {
	return &ContextSignal{
		ctx:   ctx,
		stops: make(map[abortable.SubscriptionID]func() bool),
	}
}

// Aborted reports whether the context is done.
func (s *ContextSignal) Aborted() bool {
	return s.ctx.Err() != nil
}

// Subscribe registers handler via context.AfterFunc.
// If the context is already done, the handler runs right away in its own goroutine.
func (s *ContextSignal) Subscribe(handler func()) abortable.SubscriptionID {
	id := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stops[id] = context.AfterFunc(s.ctx, func() {
		s.forget(id)
		handler()
	})

	return id
}

// Unsubscribe stops the handler registered under id, if it did not run yet.
func (s *ContextSignal) Unsubscribe(id abortable.SubscriptionID) {
	s.mu.Lock()
	stop, ok := s.stops[id]
	delete(s.stops, id)
	s.mu.Unlock()

	if ok {
		stop()
	}
}

// Subscribers returns the number of handlers that are registered and did not run yet.
func (s *ContextSignal) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.stops)
}

// Context returns the observed context.
func (s *ContextSignal) Context() context.Context {
	return s.ctx
}

func (s *ContextSignal) forget(id abortable.SubscriptionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.stops, id)
}

// Ensure ContextSignal implements abortable.Signal.
var _ abortable.Signal = (*ContextSignal)(nil)
