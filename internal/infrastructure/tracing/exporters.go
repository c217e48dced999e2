package tracing

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
)

// newOTLPExporter creates the exporter that ships spans to the collector.
// Retries stop once the export timeout has elapsed.
func newOTLPExporter(ctx context.Context, tel config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(tel.Protocol) {
	case config.ProtocolGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(tel.GRPCEndpoint),
			otlptracegrpc.WithTimeout(tel.ExportTimeout),
			otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{
				Enabled:         true,
				InitialInterval: 250 * time.Millisecond,
				MaxInterval:     2 * time.Second,
				MaxElapsedTime:  tel.ExportTimeout,
			}),
		}
		if tel.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
		return exp, nil

	case config.ProtocolHTTP, "":
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(tel.HTTPEndpoint),
			otlptracehttp.WithTimeout(tel.ExportTimeout),
			otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
				Enabled:         true,
				InitialInterval: 250 * time.Millisecond,
				MaxInterval:     2 * time.Second,
				MaxElapsedTime:  tel.ExportTimeout,
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		return exp, nil

	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", tel.Protocol)
	}
}

// newConsoleExporter pretty-prints finished spans so instrumentation can be
// checked without a collector.
func newConsoleExporter(w io.Writer) (sdktrace.SpanExporter, error) {
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create console exporter: %w", err)
	}
	return exp, nil
}
