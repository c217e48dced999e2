package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/observability-demo/internal/shared/id"
)

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

type harness struct {
	exporter *tracetest.InMemoryExporter
	metrics  *monitoring.Metrics
	out      *bytes.Buffer
	runner   *Runner
}

func newHarness(t *testing.T, mutate func(*config.PipelineConfig)) *harness {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	cfg := config.Default().Pipeline
	if mutate != nil {
		mutate(&cfg)
	}

	h := &harness{
		exporter: exporter,
		metrics:  monitoring.NewMetrics(),
		out:      &bytes.Buffer{},
	}
	runner, err := NewRunner(cfg, tp.Tracer("pipeline-test"),
		WithOutput(h.out),
		WithMetrics(h.metrics),
		WithClock(func() time.Time { return fixedTime }),
		WithRunID(func() id.RunID { return "run_01HQZX3V5K8TYGJ2M4N6P7R9S0" }),
	)
	require.NoError(t, err)
	h.runner = runner
	return h
}

func (h *harness) spans() map[string]tracetest.SpanStub {
	byName := make(map[string]tracetest.SpanStub)
	for _, s := range h.exporter.GetSpans() {
		byName[s.Name] = s
	}
	return byName
}

func attrs(s tracetest.SpanStub) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(s.Attributes))
	for _, kv := range s.Attributes {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestRunEmitsRootAndFiveStages(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	stubs := h.exporter.GetSpans()
	require.Len(t, stubs, 6)

	names := make([]string, 0, len(stubs))
	for _, s := range stubs {
		names = append(names, s.Name)
	}
	assert.Equal(t, append(StageNames(), SpanPipeline), names)

	spans := h.spans()
	root := spans[SpanPipeline]
	assert.False(t, root.Parent.IsValid())
	for _, name := range StageNames() {
		s := spans[name]
		assert.Equal(t, root.SpanContext.TraceID(), s.SpanContext.TraceID(), name)
		assert.Equal(t, root.SpanContext.SpanID(), s.Parent.SpanID(), name)
		assert.Contains(t, attrs(s), tracing.AttrDurationMS, name)
		assert.False(t, s.StartTime.Before(root.StartTime), name)
		assert.False(t, s.EndTime.After(root.EndTime), name)
	}

	assert.Equal(t, "run_01HQZX3V5K8TYGJ2M4N6P7R9S0", res.RunID)
	assert.Equal(t, "LinearRegression", res.Model)
	assert.Equal(t, 400, res.TrainSamples)
	assert.Equal(t, 100, res.TestSamples)
	assert.Equal(t, "2025-03-14 09:26:53", res.Timestamp)
	assert.Greater(t, res.MSE, 0.0)
	assert.InDelta(t, res.RMSE*res.RMSE, res.MSE, 1e-5)
}

func TestRunAttributes(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.runner.Run(context.Background())
	require.NoError(t, err)
	spans := h.spans()

	root := attrs(spans[SpanPipeline])
	assert.Equal(t, PipelineType, root[AttrPipelineType].AsString())
	assert.Equal(t, PipelineModel, root[AttrPipelineModel].AsString())
	assert.Equal(t, res.RunID, root[AttrRunID].AsString())
	assert.Equal(t, res.MSE, root[AttrPipelineMSE].AsFloat64())
	assert.Equal(t, res.RMSE, root[AttrPipelineRMSE].AsFloat64())

	loading := attrs(spans[SpanLoading])
	assert.Equal(t, int64(500), loading[AttrDataRows].AsInt64())
	assert.Equal(t, int64(4), loading[AttrDataColumns].AsInt64())

	prep := attrs(spans[SpanPreprocessing])
	assert.Equal(t, int64(400), prep[AttrTrainSize].AsInt64())
	assert.Equal(t, int64(100), prep[AttrTestSize].AsInt64())
	assert.Equal(t, 0.2, prep[AttrTestRatio].AsFloat64())

	training := attrs(spans[SpanTraining])
	assert.Equal(t, "LinearRegression", training[AttrModelType].AsString())
	assert.Equal(t, int64(3), training[AttrFeatures].AsInt64())

	eval := attrs(spans[SpanEvaluation])
	assert.Equal(t, res.MSE, eval[AttrMSE].AsFloat64())
	assert.Equal(t, res.RMSE, eval[AttrRMSE].AsFloat64())

	export := attrs(spans[SpanExport])
	assert.Equal(t, FormatJSON, export[AttrFormat].AsString())
	assert.NotContains(t, export, AttrPath)
}

func TestRunIsRepeatable(t *testing.T) {
	first, err := newHarness(t, nil).runner.Run(context.Background())
	require.NoError(t, err)
	second, err := newHarness(t, nil).runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunPrintsProgress(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, "[1/5] Loading synthetic dataset...")
	assert.Contains(t, out, "Loaded 500 rows in")
	assert.Contains(t, out, "Split: 400 train, 100 test")
	assert.Contains(t, out, "Mean Squared Error:")
	assert.Contains(t, out, `"train_samples": 400`)
}

func TestRunWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	h := newHarness(t, func(c *config.PipelineConfig) {
		c.ExportFormat = "yaml"
		c.OutputPath = path
	})

	res, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := DecodeResults(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, res, decoded)

	export := attrs(h.spans()[SpanExport])
	assert.Equal(t, FormatYAML, export[AttrFormat].AsString())
	assert.Equal(t, path, export[AttrPath].AsString())
}

func TestRunStageFailure(t *testing.T) {
	h := newHarness(t, func(c *config.PipelineConfig) { c.TestRatio = 1.5 })

	_, err := h.runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage data_preprocessing")

	spans := h.spans()
	require.Len(t, spans, 3)
	assert.Equal(t, codes.Unset, spans[SpanLoading].Status.Code)
	assert.Equal(t, codes.Error, spans[SpanPreprocessing].Status.Code)
	assert.Equal(t, codes.Error, spans[SpanPipeline].Status.Code)
	assert.NotContains(t, spans, SpanTraining)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StageRuns.WithLabelValues(SpanLoading, monitoring.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StageRuns.WithLabelValues(SpanPreprocessing, monitoring.StatusError)))
	assert.Contains(t, h.out.String(), "data_preprocessing failed")
}

func TestRunCancelled(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	spans := h.spans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[SpanPipeline].Status.Code)
}

func TestRunRecordsStageMetrics(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	for _, name := range StageNames() {
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StageRuns.WithLabelValues(name, monitoring.StatusOK)), name)
	}
}

func TestNewRunnerValidation(t *testing.T) {
	cfg := config.Default().Pipeline
	tracer := sdktrace.NewTracerProvider().Tracer("test")

	cfg.ExportFormat = "xml"
	_, err := NewRunner(cfg, tracer)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	cfg.ExportFormat = "YML"
	cfg.Rows = 1
	_, err = NewRunner(cfg, tracer)
	assert.Error(t, err)

	cfg.Rows = 10
	r, err := NewRunner(cfg, tracer)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, r.format)
}
