package tracing

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AttrDurationMS is the attribute every stage span carries.
const AttrDurationMS = "duration_ms"

// StageFunc is the unit of work wrapped by Stage.
type StageFunc func(ctx context.Context, span trace.Span) error

// Stage runs fn inside a child span called name. The span gets duration_ms
// in milliseconds (2 decimals) and, when fn fails, the error and an Error
// status. The span is always ended before Stage returns.
func Stage(ctx context.Context, tracer trace.Tracer, name string, fn StageFunc) (time.Duration, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx, span)
	elapsed := time.Since(start)

	span.SetAttributes(attribute.Float64(AttrDurationMS, Milliseconds(elapsed)))
	if err != nil {
		Fail(span, err)
	}
	return elapsed, err
}

// Fail marks span as failed with err.
func Fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Milliseconds converts d to milliseconds rounded to 2 decimals.
func Milliseconds(d time.Duration) float64 {
	return Round(float64(d)/float64(time.Millisecond), 2)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
