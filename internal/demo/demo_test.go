package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracer(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestHello(t *testing.T) {
	exporter, tp := newTracer(t)
	var out bytes.Buffer

	start := time.Now()
	require.NoError(t, Hello(context.Background(), tp.Tracer(ServiceHello), &out))
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "hello_trace", spans[0].Name)
	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.String("test.attribute", "demo_value"),
		attribute.String("demo.purpose", "academic_reproducibility"),
	}, spans[0].Attributes)
	assert.GreaterOrEqual(t, spans[0].EndTime.Sub(spans[0].StartTime), 300*time.Millisecond)
	assert.Contains(t, out.String(), "Span 'hello_trace' created.")
}

func TestSmoke(t *testing.T) {
	exporter, tp := newTracer(t)

	require.NoError(t, Smoke(context.Background(), tp.Tracer(ServiceSmoke), &bytes.Buffer{}))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "test_span", spans[0].Name)
	assert.Equal(t, []attribute.KeyValue{attribute.String("test", "hello")}, spans[0].Attributes)
	assert.GreaterOrEqual(t, spans[0].EndTime.Sub(spans[0].StartTime), 500*time.Millisecond)
}

func TestEmitCancelled(t *testing.T) {
	exporter, tp := newTracer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := HelloTrace()
	tr.Latency = time.Hour
	err := Emit(ctx, tp.Tracer("test"), tr, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestInstructions(t *testing.T) {
	var out bytes.Buffer
	Instructions(&out, "http://localhost:16686", ServicePipeline, "Explore the pipeline stages")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, strings.Repeat("=", 70), lines[0])
	assert.Equal(t, "VIEW TRACES IN JAEGER:", lines[1])
	assert.Equal(t, "  1. Open a web browser to: http://localhost:16686", lines[2])
	assert.Equal(t, "  2. In the 'Service' dropdown, select: ml-observability-demo", lines[3])
	assert.Equal(t, "  4. Explore the pipeline stages", lines[5])
	assert.Equal(t, lines[0], lines[6])
}
