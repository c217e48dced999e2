package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/logging"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/observability-demo/internal/ml"
	"github.com/GriffinCanCode/observability-demo/internal/shared/id"
)

// Runner executes the pipeline stages under one root span.
type Runner struct {
	cfg     config.PipelineConfig
	format  string
	tracer  trace.Tracer
	out     io.Writer
	logger  *logging.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
	newID   func() id.RunID
}

// Option customizes a Runner.
type Option func(*Runner)

// WithOutput sets where progress lines are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithLogger sets the runner's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMetrics records stage durations and outcomes.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(r *Runner) { r.metrics = metrics }
}

// WithClock overrides the clock used for the results timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithRunID overrides run ID generation.
func WithRunID(newID func() id.RunID) Option {
	return func(r *Runner) { r.newID = newID }
}

// NewRunner validates cfg and returns a runner bound to tracer.
func NewRunner(cfg config.PipelineConfig, tracer trace.Tracer, opts ...Option) (*Runner, error) {
	format, err := ParseFormat(cfg.ExportFormat)
	if err != nil {
		return nil, err
	}
	if cfg.Rows < 2 {
		return nil, fmt.Errorf("pipeline needs at least 2 rows, got %d", cfg.Rows)
	}

	r := &Runner{
		cfg:    cfg,
		format: format,
		tracer: tracer,
		out:    os.Stdout,
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  id.NewRunID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// run carries values between stages.
type run struct {
	id      id.RunID
	root    trace.Span
	dataset *ml.Dataset
	split   *ml.Split
	model   *ml.Model
	eval    *ml.Evaluation
	results *Results
}

type stage struct {
	name   string
	banner string
	exec   func(ctx context.Context, span trace.Span, st *run) error
	report func(st *run, elapsed time.Duration)
}

// Run executes every stage in order. The root span is ended before Run
// returns; flushing is left to the caller.
func (r *Runner) Run(ctx context.Context) (*Results, error) {
	st := &run{id: r.newID()}

	ctx, root := r.tracer.Start(ctx, SpanPipeline, trace.WithAttributes(
		attribute.String(AttrPipelineType, PipelineType),
		attribute.String(AttrPipelineModel, PipelineModel),
		attribute.String(AttrRunID, st.id.String()),
	))
	defer root.End()
	st.root = root

	logger := r.logger.WithSpan(ctx).With(zap.String("run_id", st.id.String()))
	logger.Info("pipeline started", zap.Int("rows", r.cfg.Rows))

	for i, s := range r.stages() {
		if err := ctx.Err(); err != nil {
			tracing.Fail(root, err)
			return nil, fmt.Errorf("pipeline interrupted before %s: %w", s.name, err)
		}

		fmt.Fprintf(r.out, "[%d/%d] %s...\n", i+1, len(StageNames()), s.banner)
		timer := monitoring.NewTimer(r.metrics, s.name)

		elapsed, err := tracing.Stage(ctx, r.tracer, s.name, func(ctx context.Context, span trace.Span) error {
			return s.exec(ctx, span, st)
		})
		if err != nil {
			timer.Observe(err)
			tracing.Fail(root, err)
			fmt.Fprintf(r.out, "      ✗ %s failed: %v\n\n", s.name, err)
			logger.Error("stage failed", zap.String("stage", s.name), zap.Error(err))
			return nil, fmt.Errorf("stage %s: %w", s.name, err)
		}

		timer.Observe(nil)
		s.report(st, elapsed)
		logger.Debug("stage completed", zap.String("stage", s.name), zap.Duration("elapsed", elapsed))
	}

	logger.Info("pipeline completed",
		zap.Float64("mse", st.results.MSE),
		zap.Float64("rmse", st.results.RMSE),
	)
	return st.results, nil
}

func (r *Runner) stages() []stage {
	return []stage{
		{name: SpanLoading, banner: "Loading synthetic dataset", exec: r.load, report: r.reportLoad},
		{name: SpanPreprocessing, banner: "Preprocessing data", exec: r.preprocess, report: r.reportPreprocess},
		{name: SpanTraining, banner: "Training linear regression model", exec: r.train, report: r.reportTrain},
		{name: SpanEvaluation, banner: "Evaluating model performance", exec: r.evaluate, report: r.reportEvaluate},
		{name: SpanExport, banner: "Exporting results", exec: r.export, report: r.reportExport},
	}
}

func (r *Runner) load(_ context.Context, span trace.Span, st *run) error {
	ds, err := ml.GenerateDataset(r.cfg.Rows, r.cfg.Seed)
	if err != nil {
		return err
	}
	st.dataset = ds

	span.SetAttributes(
		attribute.Int(AttrDataRows, ds.Rows()),
		attribute.Int(AttrDataColumns, ds.Columns()),
	)
	return nil
}

func (r *Runner) reportLoad(st *run, elapsed time.Duration) {
	fmt.Fprintf(r.out, "      ✓ Loaded %d rows in %.3fs\n\n", st.dataset.Rows(), elapsed.Seconds())
}

func (r *Runner) preprocess(_ context.Context, span trace.Span, st *run) error {
	split, err := ml.TrainTestSplit(st.dataset, r.cfg.TestRatio, r.cfg.Seed)
	if err != nil {
		return err
	}
	st.split = split

	span.SetAttributes(
		attribute.Int(AttrTrainSize, split.Train.Rows()),
		attribute.Int(AttrTestSize, split.Test.Rows()),
		attribute.Float64(AttrTestRatio, r.cfg.TestRatio),
	)
	return nil
}

func (r *Runner) reportPreprocess(st *run, _ time.Duration) {
	fmt.Fprintf(r.out, "      ✓ Split: %d train, %d test\n\n", st.split.Train.Rows(), st.split.Test.Rows())
}

func (r *Runner) train(_ context.Context, span trace.Span, st *run) error {
	model, err := ml.Fit(st.split.Train.X, st.split.Train.Y)
	if err != nil {
		return err
	}
	st.model = model

	span.SetAttributes(
		attribute.String(AttrModelType, ml.ModelType),
		attribute.Int(AttrFeatures, model.Features()),
	)
	return nil
}

func (r *Runner) reportTrain(_ *run, elapsed time.Duration) {
	fmt.Fprintf(r.out, "      ✓ Model trained in %.3fs\n\n", elapsed.Seconds())
}

func (r *Runner) evaluate(_ context.Context, span trace.Span, st *run) error {
	eval, err := st.model.Evaluate(st.split.Test)
	if err != nil {
		return err
	}
	st.eval = eval

	mse := tracing.Round(eval.MSE, 6)
	rmse := tracing.Round(eval.RMSE, 6)
	span.SetAttributes(
		attribute.Float64(AttrMSE, mse),
		attribute.Float64(AttrRMSE, rmse),
		attribute.Float64(AttrR2, tracing.Round(eval.R2, 6)),
	)
	st.root.SetAttributes(
		attribute.Float64(AttrPipelineMSE, mse),
		attribute.Float64(AttrPipelineRMSE, rmse),
	)
	return nil
}

func (r *Runner) reportEvaluate(st *run, _ time.Duration) {
	fmt.Fprintf(r.out, "      ✓ Mean Squared Error: %.6f\n", st.eval.MSE)
	fmt.Fprintf(r.out, "      ✓ Root Mean Squared Error: %.6f\n\n", st.eval.RMSE)
}

func (r *Runner) export(_ context.Context, span trace.Span, st *run) error {
	res := &Results{
		Model:        ml.ModelType,
		MSE:          tracing.Round(st.eval.MSE, 6),
		RMSE:         tracing.Round(st.eval.RMSE, 6),
		TrainSamples: st.split.Train.Rows(),
		TestSamples:  st.split.Test.Rows(),
		Timestamp:    r.now().Format(TimestampLayout),
		RunID:        st.id.String(),
	}

	data, err := res.Encode(r.format)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String(AttrFormat, r.format))

	if r.cfg.OutputPath != "" {
		if err := os.WriteFile(r.cfg.OutputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		span.SetAttributes(attribute.String(AttrPath, r.cfg.OutputPath))
	}

	st.results = res
	fmt.Fprintf(r.out, "      ✓ Results (%s):\n%s\n", r.format, data)
	return nil
}

func (r *Runner) reportExport(_ *run, elapsed time.Duration) {
	if r.cfg.OutputPath != "" {
		fmt.Fprintf(r.out, "      ✓ Written to %s in %.3fs\n\n", r.cfg.OutputPath, elapsed.Seconds())
		return
	}
	fmt.Fprintln(r.out)
}
