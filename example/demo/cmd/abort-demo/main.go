// Package main runs the abortable scenarios from the command line:
//
//	a: a counter that is aborted after a short time
//	b: a finite slice whose signal fired before the first pull
//	c: two signals on a counter, only the second one fires
//	d: a duplex whose wrapped source is fed into its original sink and vice versa
//
// Scenario a can read from PostgreSQL LISTEN/NOTIFY or Redis pub/sub instead of a counter.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/oteladapters"
)

func main() {
	if err := run(); err != nil {
		slog.Error("abort demo failed", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	options := []abortable.Option{abortable.WithLogger(logger)}
	if cfg.ObservabilityEnabled {
		telemetry := setupTelemetry()
		defer func() {
			if err := telemetry.report(context.Background(), logger); err != nil {
				logger.Warn("collecting telemetry failed", "error", err.Error())
			}
			_ = telemetry.shutdown(context.Background())
		}()

		options = append(options, oteladapters.Options(otel.Tracer(appName), otel.Meter(appName), appName)...)
	}

	d := demo{cfg: cfg, logger: logger, options: options}

	for _, name := range cfg.Scenarios {
		scenario, ok := d.scenarios()[name]
		if !ok {
			return fmt.Errorf("unknown scenario %q", name)
		}

		if err := scenario(ctx); err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}
	}

	return nil
}
