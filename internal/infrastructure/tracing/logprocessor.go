package tracing

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/logging"
)

// logProcessor writes one structured log line per ended span.
type logProcessor struct {
	logger *logging.Logger
}

func newLogProcessor(logger *logging.Logger) *logProcessor {
	return &logProcessor{logger: logger}
}

func (p *logProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span's identity and timing
func (p *logProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	sc := span.SpanContext()
	fields := []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
		zap.String("operation", span.Name()),
		zap.Duration("duration", span.EndTime().Sub(span.StartTime())),
	}

	if parent := span.Parent(); parent.IsValid() {
		fields = append(fields, zap.String("parent_id", parent.SpanID().String()))
	}

	if span.Status().Code == codes.Error {
		fields = append(fields, zap.String("error", span.Status().Description))
		p.logger.Error("span completed with error", fields...)
		return
	}
	p.logger.Debug("span completed", fields...)
}

func (p *logProcessor) Shutdown(context.Context) error { return nil }

func (p *logProcessor) ForceFlush(context.Context) error { return nil }
