package abortable

const defaultName = "abortable"

// Options configures how a wrap reacts to one particular signal.
// The zero value is valid and uses the defaults.
type Options[T any] struct {
	// AbortMessage is the message of the AbortError. Default: DefaultAbortMessage.
	AbortMessage string

	// AbortCode is the code of the AbortError. Default: DefaultAbortCode.
	AbortCode string

	// OnAbort is called with the underlying source when this signal cancels the sequence,
	// before the source is released.
	OnAbort func(source Source[T])

	// OnReturnError receives the error returned by the underlying source's Release during
	// cancellation. Without it, such errors are logged and swallowed.
	OnReturnError func(err error)

	// ReturnOnAbort ends the sequence with io.EOF instead of an AbortError.
	ReturnOnAbort bool
}

// Binding pairs a Signal with the Options that apply when it fires.
type Binding[T any] struct {
	Signal  Signal
	Options Options[T]
}

// Option defines a functional option for configuring the observability of a wrap.
type Option func(*config) error

type config struct {
	observer
}

// WithName sets the name reported in logs, metric labels and span attributes.
func WithName(name string) Option {
	return func(c *config) error {
		if name == "" {
			return ErrEmptyName
		}

		c.name = name

		return nil
	}
}

// WithLogger sets the logger for the wrap.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: signal subscription and unsubscription
// Info level: terminal states with value counts and durations (production-safe)
// Warn level: swallowed release failures during cancellation
// Error level: failures of the underlying source.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return ErrNilLogger
		}

		c.logger = logger

		return nil
	}
}

// WithContextualLogger sets the contextual logger for the wrap.
// It receives the same messages as the Logger, together with the context of the pulling call.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(c *config) error {
		if logger == nil {
			return ErrNilLogger
		}

		c.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector for the wrap.
// It receives stream durations, yielded value counts and counters for aborts, completions,
// failures and release errors.
func WithMetrics(collector MetricsCollector) Option {
	return func(c *config) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		c.metricsCollector = collector

		return nil
	}
}

// WithTracing sets the tracing collector for the wrap.
// One span covers the lifetime of a wrapped sequence, from the first pull to its terminal state.
func WithTracing(collector TracingCollector) Option {
	return func(c *config) error {
		if collector == nil {
			return ErrNilTracingCollector
		}

		c.tracingCollector = collector

		return nil
	}
}

func buildConfig(options []Option) (config, error) {
	c := config{observer: observer{name: defaultName}}

	for _, option := range options {
		if err := option(&c); err != nil {
			return config{}, err
		}
	}

	return c, nil
}

func validateBindings[T any](bindings []Binding[T]) error {
	if len(bindings) == 0 {
		return ErrNoBindings
	}

	for _, b := range bindings {
		if b.Signal == nil {
			return ErrNilSignal
		}
	}

	return nil
}
