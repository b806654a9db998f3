package abortable

import (
	"github.com/google/uuid"
)

// SubscriptionID identifies one handler registered on a Signal.
type SubscriptionID = uuid.UUID

// Signal is an externally controlled, one-shot cancellation event.
//
// Implementations must be safe for concurrent use:
//   - Aborted may be called at any time from any goroutine
//   - a handler passed to Subscribe is invoked at most once, when the signal fires
//   - Unsubscribe of an unknown or already removed ID is a no-op
//
// Once Aborted returns true it must keep returning true.
// The engine only ever subscribes to signals, it never triggers them.
type Signal interface {
	// Aborted reports whether the signal has already fired.
	Aborted() bool

	// Subscribe registers a one-shot handler and returns its ID.
	Subscribe(handler func()) SubscriptionID

	// Unsubscribe removes a handler registered with Subscribe.
	Unsubscribe(id SubscriptionID)
}
