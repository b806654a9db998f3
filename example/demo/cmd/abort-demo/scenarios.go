package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/pgnotify"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/redissource"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/signals"
)

type demo struct {
	cfg     Config
	logger  *slog.Logger
	options []abortable.Option
}

func (d demo) scenarios() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"a": d.scenarioA,
		"b": d.scenarioB,
		"c": d.scenarioC,
		"d": d.scenarioD,
	}
}

// counter yields 0, 1, 2, ... with interval in between.
func counter(interval time.Duration) abortable.SourceFunc[int] {
	n := 0

	return func(ctx context.Context) (int, error) {
		select {
		case <-time.After(interval):
			n++
			return n - 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func (d demo) with(name string) []abortable.Option {
	return append([]abortable.Option{abortable.WithName(name)}, d.options...)
}

func (d demo) report(scenario string, values int, err error) error {
	var abortErr *abortable.AbortError
	if !errors.As(err, &abortErr) {
		return fmt.Errorf("expected an abort error, got %v", err)
	}

	d.logger.Info("scenario finished",
		"scenario", scenario,
		"values", values,
		"abort_code", abortErr.Code(),
		"abort_message", abortErr.Message())

	return nil
}

func (d demo) scenarioA(ctx context.Context) error {
	controller := signals.NewController()

	source, closeSource, err := d.sourceForA(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	it, err := abortable.WrapSource[string](source, controller, abortable.Options[string]{
		OnReturnError: func(err error) {
			d.logger.Warn("releasing the source failed", "error", err.Error())
		},
	}, d.with("scenario-a")...)
	if err != nil {
		return err
	}

	time.AfterFunc(d.cfg.AbortAfter, controller.Abort)

	values := 0
	for value, err := range it.All(ctx) {
		if err != nil {
			return d.report("a", values, err)
		}

		values++
		d.logger.Debug("value", "scenario", "a", "value", value)
	}

	return d.report("a", values, nil)
}

// sourceForA picks the never-ending source of scenario a. Values are rendered as strings.
// The returned func closes the connection behind the source.
func (d demo) sourceForA(ctx context.Context) (abortable.Source[string], func(), error) {
	switch d.cfg.Source {
	case sourcePostgres:
		conn, err := pgx.Connect(ctx, d.cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		closeConn := func() { _ = conn.Close(context.Background()) }

		notifications, err := pgnotify.Listen(ctx, conn, d.cfg.Channel, pgnotify.WithLogger(d.logger))
		if err != nil {
			closeConn()
			return nil, nil, err
		}

		d.logger.Info("listening", "channel", d.cfg.Channel)

		return mapSource(notifications, func(n pgnotify.Notification) string { return n.Payload }), closeConn, nil

	case sourceRedis:
		client := redis.NewClient(&redis.Options{Addr: d.cfg.RedisAddr})
		closeClient := func() { _ = client.Close() }

		messages, err := redissource.Subscribe(ctx, client, d.cfg.Channel)
		if err != nil {
			closeClient()
			return nil, nil, err
		}

		d.logger.Info("subscribed", "channel", d.cfg.Channel)

		return mapSource(messages, func(m redissource.Message) string { return m.Payload }), closeClient, nil

	default:
		return mapSource(counter(d.cfg.Interval), func(n int) string { return fmt.Sprint(n) }), func() {}, nil
	}
}

func (d demo) scenarioB(ctx context.Context) error {
	controller := signals.NewController()
	controller.Abort()

	it, err := abortable.WrapSource[int]([]int{5, 5, 5}, controller, abortable.Options[int]{}, d.with("scenario-b")...)
	if err != nil {
		return err
	}

	values, err := abortable.Drain[int](ctx, it)

	return d.report("b", values, err)
}

func (d demo) scenarioC(ctx context.Context) error {
	first := signals.NewController()
	second := signals.NewController()

	it, err := abortable.WrapSourceSignals[int](counter(d.cfg.Interval), []abortable.Binding[int]{
		{Signal: first, Options: abortable.Options[int]{AbortCode: "ERR_FIRST", AbortMessage: "first signal"}},
		{Signal: second, Options: abortable.Options[int]{AbortCode: "ERR_SECOND", AbortMessage: "second signal"}},
	}, d.with("scenario-c")...)
	if err != nil {
		return err
	}

	time.AfterFunc(d.cfg.AbortAfter, second.Abort)

	values, err := abortable.Drain[int](ctx, it)

	return d.report("c", values, err)
}

func (d demo) scenarioD(ctx context.Context) error {
	newDuplex := func() abortable.Duplex[int, int, int] {
		return abortable.Duplex[int, int, int]{
			Source: counter(d.cfg.Interval),
			Sink:   abortable.Drain[int],
		}
	}

	original := newDuplex()
	controller := signals.NewController()

	wrapped, err := abortable.WrapDuplex(original, controller, abortable.Options[int]{AbortCode: "ERR_DUPLEX"}, d.with("scenario-d-source")...)
	if err != nil {
		return err
	}

	time.AfterFunc(d.cfg.AbortAfter, controller.Abort)

	values, err := original.Sink(ctx, wrapped.Source)
	if reportErr := d.report("d (wrapped source)", values, err); reportErr != nil {
		return reportErr
	}

	original = newDuplex()
	controller = signals.NewController()

	wrapped, err = abortable.WrapDuplex(original, controller, abortable.Options[int]{AbortCode: "ERR_DUPLEX"}, d.with("scenario-d-sink")...)
	if err != nil {
		return err
	}

	time.AfterFunc(d.cfg.AbortAfter, controller.Abort)

	values, err = wrapped.Sink(ctx, original.Source)

	return d.report("d (wrapped sink)", values, err)
}

// mappedSource converts the values of a source, passing Release through.
type mappedSource[From, To any] struct {
	source abortable.Source[From]
	mapper func(From) To
}

func mapSource[From, To any](source abortable.Source[From], mapper func(From) To) *mappedSource[From, To] {
	return &mappedSource[From, To]{source: source, mapper: mapper}
}

func (m *mappedSource[From, To]) Next(ctx context.Context) (To, error) {
	value, err := m.source.Next(ctx)
	if err != nil {
		var zero To
		return zero, err
	}

	return m.mapper(value), nil
}

func (m *mappedSource[From, To]) Release() error {
	if releaser, ok := m.source.(abortable.Releaser); ok {
		return releaser.Release()
	}

	return nil
}
