package abortable

import (
	"errors"
)

const (
	// ErrorType is the discriminant carried by every AbortError.
	ErrorType = "aborted"

	// DefaultAbortMessage is used when a binding does not configure an abort message.
	DefaultAbortMessage = "The operation was aborted"

	// DefaultAbortCode is used when a binding does not configure an abort code.
	DefaultAbortCode = "ABORT_ERR"
)

var (
	// ErrAborted matches every *AbortError via errors.Is, independent of its code and message.
	ErrAborted = errors.New("aborted")

	// ErrNotASequence is returned when a value cannot be converted into a Source.
	ErrNotASequence = errors.New("argument is not an iterator or iterable")

	// ErrNoBindings is returned when a wrap is requested without any signal binding.
	ErrNoBindings = errors.New("at least one signal binding must be supplied")

	// ErrNilSignal is returned when a binding carries a nil Signal.
	ErrNilSignal = errors.New("signal must not be nil")

	// ErrNilSink is returned when a nil Sink is supplied to WrapSink or WrapDuplex.
	ErrNilSink = errors.New("sink must not be nil")

	// ErrEmptyName is returned when an empty name is supplied to WithName.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrNilLogger is returned when a nil logger is supplied to WithLogger or WithContextualLogger.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrNilMetricsCollector is returned when a nil metrics collector is supplied to WithMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrNilTracingCollector is returned when a nil tracing collector is supplied to WithTracing.
	ErrNilTracingCollector = errors.New("tracing collector must not be nil")
)

// AbortError is returned by an Iterator when one of its bound signals fired.
//
// Its type is always "aborted", so callers can tell a cancellation apart from any other
// failure without looking at the code or message, which are configurable per binding.
type AbortError struct {
	message string
	code    string
}

// NewAbortError builds an AbortError. Empty arguments fall back to DefaultAbortMessage and DefaultAbortCode.
func NewAbortError(message, code string) *AbortError {
	if message == "" {
		message = DefaultAbortMessage
	}

	if code == "" {
		code = DefaultAbortCode
	}

	return &AbortError{message: message, code: code}
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	return e.message
}

// Type returns the discriminant, which is always ErrorType.
func (e *AbortError) Type() string {
	return ErrorType
}

// Code returns the machine-readable code.
func (e *AbortError) Code() string {
	return e.code
}

// Message returns the human-readable description.
func (e *AbortError) Message() string {
	return e.message
}

// Is reports whether target is ErrAborted.
func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

// IsAbortError reports whether err is, or wraps, an *AbortError.
func IsAbortError(err error) bool {
	var abortErr *AbortError

	return errors.As(err, &abortErr) && abortErr.Type() == ErrorType
}
