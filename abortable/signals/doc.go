// Package signals provides ready-made implementations of abortable.Signal.
//
//   - Controller: triggered manually by calling Abort, comparable to an abort controller
//   - FromContext: fires when a context.Context is done
//
// Both are safe for concurrent use and can be observed by any number of wraps at the same time.
package signals
