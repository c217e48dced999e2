package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/observability-demo/internal/demo"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/tracing"
)

// body is the instrumented work of one emitting subcommand.
type body func(ctx context.Context, cfg *config.Config, tracer trace.Tracer) error

// emit installs the provider for service, runs fn, then flushes and shuts the
// processors down and prints the Jaeger instructions whatever fn returned. Flush and shutdown errors are joined
// with fn's error rather than replacing it.
func (a *app) emit(ctx context.Context, out io.Writer, service string, fn body, extra ...string) error {
	cfg := a.cfg.WithService(service)
	logger := a.logger.With(zap.String("service", cfg.Service.Name))

	fmt.Fprintln(out, "Setting up OpenTelemetry tracer...")
	tcfg := tracing.Config{Service: cfg.Service, Telemetry: cfg.Telemetry}
	provider, err := tracing.Setup(ctx, tcfg,
		tracing.WithLogger(a.logger.Named("tracing")),
		tracing.WithMetrics(a.metrics),
		tracing.WithConsoleWriter(out),
	)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	fmt.Fprintf(out, "Tracer configured successfully (%v).\n\n", provider.Processors())

	runErr := fn(ctx, cfg, provider.Tracer())

	// Spans must still be delivered after an interrupt.
	final := context.WithoutCancel(ctx)

	fmt.Fprintln(out, "\nFlushing spans to the collector...")
	flushErr := provider.Flush(final)
	if flushErr != nil {
		logger.Warn("Flush incomplete", zap.Error(flushErr))
		fmt.Fprintf(out, "Warning during flush: %v\n", flushErr)
	} else {
		fmt.Fprintln(out, "Spans flushed successfully.")
	}

	shutdownErr := provider.Shutdown(final)
	if shutdownErr != nil {
		logger.Warn("Shutdown incomplete", zap.Error(shutdownErr))
		fmt.Fprintf(out, "Warning during shutdown: %v\n\n", shutdownErr)
	} else {
		fmt.Fprint(out, "Processors shut down cleanly.\n\n")
	}

	demo.Instructions(out, cfg.Jaeger.UIURL, cfg.Service.Name, extra...)

	return errors.Join(runErr, flushErr, shutdownErr, a.writeMetrics(cfg))
}

func (a *app) writeMetrics(cfg *config.Config) error {
	path := cfg.Pipeline.MetricsFile
	if path == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	a.logger.Debug("Metrics written", zap.String("path", path))
	return nil
}
