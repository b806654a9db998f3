// Package abortable makes pull-based sequences cancellable from the outside.
//
// A Source is anything that hands out values one at a time on demand and reports
// exhaustion with io.EOF. Wrapping a Source together with one or more Signals
// yields an Iterator that behaves exactly like the original, except that it stops
// with an *AbortError as soon as any of the bound signals fires. The underlying
// source is released on cancellation if it implements Releaser.
//
// The package offers three shapes built on the same engine:
//   - WrapSource / WrapSourceSignals: wrap a pull source
//   - WrapSink / WrapSinkSignals (and WrapTransform): wrap a consuming function
//   - WrapDuplex / WrapDuplexSignals: wrap both halves of a duplex
//
// Common usage pattern:
//
//	controller := signals.NewController()
//
//	it, err := abortable.WrapSource[int](counter, controller, abortable.Options[int]{})
//	if err != nil {
//		// handle error
//	}
//
//	time.AfterFunc(5*time.Second, controller.Abort)
//
//	for value, err := range it.All(ctx) {
//		if abortable.IsAbortError(err) {
//			// expected
//		}
//		...
//	}
package abortable
