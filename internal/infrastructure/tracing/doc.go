/*
Package tracing wires the OpenTelemetry SDK for the demos.

# Overview

Every demo follows the same sequence: describe the service, get a tracer,
open nested spans around units of work, attach attributes, end the spans in
reverse order, then flush everything before the process exits. This package
owns the setup and teardown half of that sequence so the demos only deal
with spans.

	Resource (service.name, service.namespace, service.version)
	    |
	TracerProvider
	    |-- BatchSpanProcessor -> stdouttrace (console)
	    |-- BatchSpanProcessor -> breaker -> OTLP HTTP/gRPC -> Jaeger
	    `-- log processor (zap, one line per ended span)

# Usage

	provider, err := tracing.Setup(ctx, tracing.Config{
		Service:   cfg.Service,
		Telemetry: cfg.Telemetry,
	}, tracing.WithLogger(logger))
	if err != nil {
		return err
	}
	defer provider.Shutdown(context.Background())

	tracer := provider.Tracer()
	elapsed, err := tracing.Stage(ctx, tracer, "data_loading", func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Int("data.rows", 500))
		return nil
	})

	if err := provider.Flush(ctx); err != nil {
		logger.Warn("flush failed", zap.Error(err))
	}

# Single installation

Only one provider may be installed globally at a time. A second Setup
without an intervening Shutdown returns ErrAlreadyInstalled; after Shutdown
a new provider can be installed in the same process.
*/
package tracing
