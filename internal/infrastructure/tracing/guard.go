package tracing

import (
	"context"
	"errors"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/logging"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/resilience"
)

// ErrCollectorUnavailable is returned for batches rejected while the export
// breaker is open.
var ErrCollectorUnavailable = errors.New("collector unavailable")

// Export outcomes recorded in metrics.
const (
	exportOK       = "ok"
	exportFailed   = "error"
	exportRejected = "rejected"
)

// guardedExporter fails fast once the wrapped exporter keeps failing.
type guardedExporter struct {
	name    string
	next    sdktrace.SpanExporter
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

func newGuardedExporter(name string, next sdktrace.SpanExporter, settings resilience.Settings, metrics *monitoring.Metrics, logger *logging.Logger) *guardedExporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	g := &guardedExporter{
		name:    name,
		next:    next,
		metrics: metrics,
		logger:  logger,
	}

	onChange := settings.OnStateChange
	settings.OnStateChange = func(breaker string, from, to resilience.State) {
		fields := []zap.Field{
			zap.String("exporter", breaker),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		}
		if to == resilience.StateOpen && settings.Timeout > 0 {
			fields = append(fields, zap.Duration("retry_in", settings.Timeout))
		}
		logger.Warn("export breaker changed state", fields...)
		if onChange != nil {
			onChange(breaker, from, to)
		}
	}
	g.breaker = resilience.New(name, settings)
	return g
}

// ExportSpans implements sdktrace.SpanExporter.
func (g *guardedExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		return g.next.ExportSpans(ctx, spans)
	})

	switch {
	case err == nil:
		g.record(exportOK, len(spans))
		return nil
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		g.record(exportRejected, len(spans))
		return fmt.Errorf("%w: dropped %d spans for %s: %v", ErrCollectorUnavailable, len(spans), g.name, err)
	default:
		g.record(exportFailed, len(spans))
		return err
	}
}

// Shutdown implements sdktrace.SpanExporter.
func (g *guardedExporter) Shutdown(ctx context.Context) error {
	return g.next.Shutdown(ctx)
}

func (g *guardedExporter) record(status string, spans int) {
	if g.metrics != nil {
		g.metrics.RecordExport(g.name, status, spans)
	}
}
