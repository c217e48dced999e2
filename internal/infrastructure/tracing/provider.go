package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/logging"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/resilience"
)

// ErrAlreadyInstalled is returned by Setup while another provider is installed.
var ErrAlreadyInstalled = errors.New("tracer provider already installed")

// installed guards the process-wide provider slot.
var installed atomic.Bool

// Processor names used in logs and metrics.
const (
	ExporterConsole = "console"
	ExporterOTLP    = "otlp"
)

// Config describes what to trace and where to send it.
type Config struct {
	Service   config.ServiceConfig
	Telemetry config.TelemetryConfig
}

// Option customizes Setup.
type Option func(*options)

type options struct {
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	console   io.Writer
	exporters []namedExporter
	breaker   resilience.Settings
}

type namedExporter struct {
	name     string
	exporter sdktrace.SpanExporter
}

// WithLogger sets the logger used for span logs and export errors.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records exported batches in metrics.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// WithConsoleWriter redirects the console exporter. Defaults to stdout.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// WithExporter adds an exporter with its own batch processor.
func WithExporter(name string, exporter sdktrace.SpanExporter) Option {
	return func(o *options) {
		o.exporters = append(o.exporters, namedExporter{name: name, exporter: exporter})
	}
}

// WithBreakerSettings overrides the export breaker.
func WithBreakerSettings(settings resilience.Settings) Option {
	return func(o *options) { o.breaker = settings }
}

type namedProcessor struct {
	name string
	sdktrace.SpanProcessor
}

// Provider owns the installed tracer provider and its processors.
type Provider struct {
	tp           *sdktrace.TracerProvider
	processors   []namedProcessor
	tracer       trace.Tracer
	logger       *logging.Logger
	flushTimeout time.Duration

	shutdownOnce sync.Once
	shutdownErr  error
}

// Setup builds the provider for cfg and installs it globally.
func Setup(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	o := options{
		console: os.Stdout,
		breaker: resilience.Settings{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if cfg.Service.Name == "" {
		return nil, fmt.Errorf("service name is required")
	}

	if !installed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInstalled
	}

	p, err := newProvider(ctx, cfg, o)
	if err != nil {
		installed.Store(false)
		return nil, err
	}

	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		o.logger.Warn("telemetry error", zap.Error(err))
	}))

	o.logger.Info("tracer provider installed",
		zap.String("service", cfg.Service.Name),
		zap.Int("processors", len(p.processors)),
	)
	return p, nil
}

func newProvider(ctx context.Context, cfg Config, o options) (*Provider, error) {
	tel := cfg.Telemetry
	exporters := make([]namedExporter, 0, len(o.exporters)+2)

	if tel.Console {
		exp, err := newConsoleExporter(o.console)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, namedExporter{name: ExporterConsole, exporter: exp})
	}

	if tel.OTLP {
		exp, err := newOTLPExporter(ctx, tel)
		if err != nil {
			shutdownExporters(ctx, exporters)
			return nil, err
		}
		guarded := newGuardedExporter(ExporterOTLP, exp, o.breaker, o.metrics, o.logger)
		exporters = append(exporters, namedExporter{name: ExporterOTLP, exporter: guarded})
	}

	exporters = append(exporters, o.exporters...)

	p := &Provider{
		logger:       o.logger,
		flushTimeout: tel.FlushTimeout,
	}
	if p.flushTimeout <= 0 {
		p.flushTimeout = 10 * time.Second
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(NewResource(cfg.Service)),
	}
	for _, e := range exporters {
		bsp := sdktrace.NewBatchSpanProcessor(e.exporter, sdktrace.WithExportTimeout(tel.ExportTimeout))
		p.processors = append(p.processors, namedProcessor{name: e.name, SpanProcessor: bsp})
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(bsp))
	}

	logs := newLogProcessor(o.logger.Named("spans"))
	p.processors = append(p.processors, namedProcessor{name: "log", SpanProcessor: logs})
	tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(logs))

	p.tp = sdktrace.NewTracerProvider(tpOpts...)
	p.tracer = p.tp.Tracer(cfg.Service.Name)
	return p, nil
}

func shutdownExporters(ctx context.Context, exporters []namedExporter) {
	for _, e := range exporters {
		_ = e.exporter.Shutdown(ctx)
	}
}

// Tracer returns the tracer named after the service.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// TracerProvider exposes the SDK provider.
func (p *Provider) TracerProvider() *sdktrace.TracerProvider {
	return p.tp
}

// Processors returns the processor names in registration order.
func (p *Provider) Processors() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.name
	}
	return names
}

// Flush force-flushes every processor in registration order. A failing
// processor does not stop the others.
func (p *Provider) Flush(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.flushTimeout)
	defer cancel()

	var errs []error
	for _, proc := range p.processors {
		if err := proc.ForceFlush(ctx); err != nil {
			p.logger.Warn("failed to flush span processor",
				zap.String("processor", proc.name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("flush %s: %w", proc.name, err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown stops every processor and releases the global slot. Calling it
// more than once returns the first result.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, p.flushTimeout)
		defer cancel()

		var errs []error
		for _, proc := range p.processors {
			if err := proc.Shutdown(ctx); err != nil {
				p.logger.Warn("failed to shut down span processor",
					zap.String("processor", proc.name),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("shutdown %s: %w", proc.name, err))
			}
		}
		if err := p.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown provider: %w", err))
		}

		otel.SetTracerProvider(noop.NewTracerProvider())
		installed.Store(false)
		p.shutdownErr = errors.Join(errs...)
	})
	return p.shutdownErr
}
