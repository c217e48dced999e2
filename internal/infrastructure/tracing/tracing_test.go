package tracing

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/resilience"
)

func testConfig() Config {
	cfg := config.Default().WithService("tracing-test")
	cfg.Telemetry.Console = false
	cfg.Telemetry.OTLP = false
	return Config{Service: cfg.Service, Telemetry: cfg.Telemetry}
}

func setupInMemory(t *testing.T) (*Provider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	provider, err := Setup(context.Background(), testConfig(), WithExporter("memory", exporter))
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider, exporter
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestSetupRejectsSecondInstall(t *testing.T) {
	first, err := Setup(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = Setup(context.Background(), testConfig())
	assert.ErrorIs(t, err, ErrAlreadyInstalled)

	require.NoError(t, first.Shutdown(context.Background()))

	second, err := Setup(context.Background(), testConfig())
	require.NoError(t, err)
	assert.NoError(t, second.Shutdown(context.Background()))
}

func TestSetupRequiresServiceName(t *testing.T) {
	cfg := testConfig()
	cfg.Service.Name = ""

	_, err := Setup(context.Background(), cfg)
	require.Error(t, err)

	// the slot must stay free after a rejected config
	provider, err := Setup(context.Background(), testConfig())
	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestSetupInstallsGlobalProvider(t *testing.T) {
	provider, _ := setupInMemory(t)

	assert.Same(t, provider.TracerProvider(), otel.GetTracerProvider())
	assert.Equal(t, []string{"memory", "log"}, provider.Processors())
}

func TestSetupConsoleExporter(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Telemetry.Console = true

	provider, err := Setup(context.Background(), cfg, WithConsoleWriter(&buf))
	require.NoError(t, err)

	_, span := provider.Tracer().Start(context.Background(), "console_span")
	span.End()

	require.NoError(t, provider.Flush(context.Background()))
	require.NoError(t, provider.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name": "console_span"`)
	assert.Contains(t, buf.String(), "tracing-test")
}

func TestFlushDeliversResourceAndSpans(t *testing.T) {
	provider, exporter := setupInMemory(t)

	_, span := provider.Tracer().Start(context.Background(), "hello_trace")
	span.SetAttributes(attribute.String("test.attribute", "demo_value"))
	span.End()

	require.NoError(t, provider.Flush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "hello_trace", spans[0].Name)
	assert.Equal(t, "demo_value", attrMap(spans[0].Attributes)["test.attribute"].AsString())

	res := attrMap(spans[0].Resource.Attributes())
	assert.Equal(t, "tracing-test", res["service.name"].AsString())
	assert.Equal(t, "academic-observability", res["service.namespace"].AsString())
	assert.Equal(t, "1.0.0", res["service.version"].AsString())
}

var errCollectorDown = errors.New("collector down")

type rejectingExporter struct {
	attempts atomic.Int32
}

func (e *rejectingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	e.attempts.Add(1)
	return errCollectorDown
}

func (e *rejectingExporter) Shutdown(context.Context) error { return nil }

func TestFlushContinuesPastFailingProcessor(t *testing.T) {
	rejecting := &rejectingExporter{}
	memory := tracetest.NewInMemoryExporter()
	provider, err := Setup(context.Background(), testConfig(),
		WithExporter("remote", rejecting),
		WithExporter("memory", memory),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	assert.Equal(t, []string{"remote", "memory", "log"}, provider.Processors())

	_, span := provider.Tracer().Start(context.Background(), "model_training")
	span.End()

	err = provider.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errCollectorDown)
	assert.Contains(t, err.Error(), "flush remote")
	assert.NotContains(t, err.Error(), "flush memory")
	assert.Equal(t, int32(1), rejecting.attempts.Load())

	spans := memory.GetSpans()
	require.Len(t, spans, 1, "processors after the failing one still flush")
	assert.Equal(t, "model_training", spans[0].Name)
}

func TestShutdownIsIdempotent(t *testing.T) {
	provider, err := Setup(context.Background(), testConfig())
	require.NoError(t, err)

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestStage(t *testing.T) {
	provider, exporter := setupInMemory(t)
	tracer := provider.Tracer()

	ctx, root := tracer.Start(context.Background(), "root")
	elapsed, err := Stage(ctx, tracer, "work", func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Int("data.rows", 500))
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	root.End()

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	require.NoError(t, provider.Flush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	stage := spans[0]
	assert.Equal(t, "work", stage.Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), stage.Parent.SpanID())

	attrs := attrMap(stage.Attributes)
	assert.Equal(t, int64(500), attrs["data.rows"].AsInt64())
	assert.GreaterOrEqual(t, attrs[AttrDurationMS].AsFloat64(), 5.0)
	assert.Equal(t, codes.Unset, stage.Status.Code)
}

func TestStageRecordsFailure(t *testing.T) {
	provider, exporter := setupInMemory(t)
	boom := errors.New("boom")

	_, err := Stage(context.Background(), provider.Tracer(), "broken", func(context.Context, trace.Span) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, provider.Flush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "boom", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
	assert.Contains(t, attrMap(spans[0].Attributes), AttrDurationMS)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{1.23456, 2, 1.23},
		{1.235, 2, 1.24},
		{0.0400001234, 6, 0.04},
		{12, 0, 12},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round(tt.in, tt.places), 1e-12)
	}
	assert.InDelta(t, 1.5, Milliseconds(1500*time.Microsecond), 1e-12)
}

type failingExporter struct {
	calls int
}

func (f *failingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	f.calls++
	return errors.New("connection refused")
}

func (f *failingExporter) Shutdown(context.Context) error { return nil }

func TestGuardedExporterFailsFast(t *testing.T) {
	metrics := monitoring.NewMetrics()
	next := &failingExporter{}
	guard := newGuardedExporter("otlp", next, resilience.Settings{Timeout: time.Hour}, metrics, nil)

	spans := tracetest.SpanStubs{{Name: "a"}, {Name: "b"}}.Snapshots()

	for i := 0; i < 3; i++ {
		err := guard.ExportSpans(context.Background(), spans)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCollectorUnavailable)
	}
	assert.Equal(t, resilience.StateOpen, guard.breaker.State())

	err := guard.ExportSpans(context.Background(), spans)
	assert.ErrorIs(t, err, ErrCollectorUnavailable)
	assert.Equal(t, 3, next.calls)
}
