package abortable

// Duplex exposes both halves of a bidirectional stream: a Source to read from and a Sink to write into.
type Duplex[TSource, TSink, R any] struct {
	Source Source[TSource]
	Sink   Sink[TSink, R]
}

// WrapDuplex wraps both halves of duplex with a single signal.
func WrapDuplex[TSource, TSink, R any](duplex Duplex[TSource, TSink, R], signal Signal, opts Options[TSource], options ...Option) (Duplex[TSource, TSink, R], error) {
	return WrapDuplexSignals(duplex, []Binding[TSource]{{Signal: signal, Options: opts}}, options...)
}

// WrapDuplexSignals wraps the source half with WrapSourceSignals and the sink half with WrapSinkSignals.
//
// Both halves use the same bindings but subscribe independently, so cancellation applies to
// whichever half the caller actually drives. OnAbort only applies to the source half.
func WrapDuplexSignals[TSource, TSink, R any](duplex Duplex[TSource, TSink, R], bindings []Binding[TSource], options ...Option) (Duplex[TSource, TSink, R], error) {
	if duplex.Sink == nil {
		return Duplex[TSource, TSink, R]{}, ErrNilSink
	}

	source, err := WrapSourceSignals[TSource](duplex.Source, bindings, options...)
	if err != nil {
		return Duplex[TSource, TSink, R]{}, err
	}

	sink, err := WrapSinkSignals(duplex.Sink, sinkBindings[TSource, TSink](bindings), options...)
	if err != nil {
		return Duplex[TSource, TSink, R]{}, err
	}

	return Duplex[TSource, TSink, R]{Source: source, Sink: sink}, nil
}

// sinkBindings carries the bindings over to the sink's element type, without OnAbort.
func sinkBindings[TSource, TSink any](bindings []Binding[TSource]) []Binding[TSink] {
	converted := make([]Binding[TSink], len(bindings))

	for i, b := range bindings {
		converted[i] = Binding[TSink]{
			Signal: b.Signal,
			Options: Options[TSink]{
				AbortMessage:  b.Options.AbortMessage,
				AbortCode:     b.Options.AbortCode,
				OnReturnError: b.Options.OnReturnError,
				ReturnOnAbort: b.Options.ReturnOnAbort,
			},
		}
	}

	return converted
}
