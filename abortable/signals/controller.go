package signals

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
)

// Controller is a Signal that fires when Abort is called.
//
// Aborted performs a single atomic load, so polling it in hot loops is cheap.
type Controller struct {
	aborted  atomic.Bool
	mu       sync.Mutex
	handlers map[abortable.SubscriptionID]func()
}

// NewController creates a Controller that has not fired yet.
func NewController() *Controller {
	return &Controller{
		handlers: make(map[abortable.SubscriptionID]func()),
	}
}

// Aborted reports whether Abort has been called.
func (c *Controller) Aborted() bool {
	return c.aborted.Load()
}

// Abort fires the signal and invokes every subscribed handler exactly once.
//
// Safe to call multiple times; subsequent calls are no-ops.
// Handlers run on the calling goroutine, after the lock is released, so they may unsubscribe.
func (c *Controller) Abort() {
	c.mu.Lock()
	if c.aborted.Load() {
		c.mu.Unlock()
		return
	}

	c.aborted.Store(true)
	handlers := make([]func(), 0, len(c.handlers))
	for id, handler := range c.handlers {
		handlers = append(handlers, handler)
		delete(c.handlers, id)
	}
	c.mu.Unlock()

	for _, handler := range handlers {
		handler()
	}
}

// Subscribe registers a handler that is invoked once when the signal fires.
// Subscribing to a controller that already fired never invokes the handler.
func (c *Controller) Subscribe(handler func()) abortable.SubscriptionID {
	id := uuid.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.aborted.Load() {
		c.handlers[id] = handler
	}

	return id
}

// Unsubscribe removes a handler. Unknown IDs are ignored.
func (c *Controller) Unsubscribe(id abortable.SubscriptionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.handlers, id)
}

// Subscribers returns the number of handlers currently registered.
func (c *Controller) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.handlers)
}

// Ensure Controller implements abortable.Signal.
var _ abortable.Signal = (*Controller)(nil)
