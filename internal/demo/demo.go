// Package demo holds the single-span emitters and the console text shared
// by the subcommands.
package demo

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/tracing"
)

// Default service names per subcommand.
const (
	ServiceHello    = "positron-demo"
	ServiceSmoke    = "test-trace"
	ServicePipeline = "ml-observability-demo"
)

// Trace describes one single-span emission.
type Trace struct {
	Span       string
	Attributes []attribute.KeyValue
	Latency    time.Duration
}

// HelloTrace is the minimal hello-world span.
func HelloTrace() Trace {
	return Trace{
		Span: "hello_trace",
		Attributes: []attribute.KeyValue{
			attribute.String("test.attribute", "demo_value"),
			attribute.String("demo.purpose", "academic_reproducibility"),
		},
		Latency: 300 * time.Millisecond,
	}
}

// SmokeTrace is the connectivity test span.
func SmokeTrace() Trace {
	return Trace{
		Span:       "test_span",
		Attributes: []attribute.KeyValue{attribute.String("test", "hello")},
		Latency:    500 * time.Millisecond,
	}
}

// Emit opens t.Span, sets its attributes, waits t.Latency and ends it. A
// cancelled context cuts the wait short and marks the span as failed.
func Emit(ctx context.Context, tracer trace.Tracer, t Trace, out io.Writer) error {
	ctx, span := tracer.Start(ctx, t.Span, trace.WithAttributes(t.Attributes...))
	defer span.End()

	fmt.Fprintf(out, "  -> Span '%s' created.\n", t.Span)

	if err := sleep(ctx, t.Latency); err != nil {
		tracing.Fail(span, err)
		return fmt.Errorf("span %s interrupted: %w", t.Span, err)
	}
	return nil
}

// Hello emits HelloTrace.
func Hello(ctx context.Context, tracer trace.Tracer, out io.Writer) error {
	return Emit(ctx, tracer, HelloTrace(), out)
}

// Smoke emits SmokeTrace.
func Smoke(ctx context.Context, tracer trace.Tracer, out io.Writer) error {
	return Emit(ctx, tracer, SmokeTrace(), out)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
