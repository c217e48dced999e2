package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/logging"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/monitoring"
)

// flagValues holds every flag; a value is applied only when its flag was set.
type flagValues struct {
	endpoint    string
	protocol    string
	service     string
	environment string
	uiURL       string
	logLevel    string
	metricsFile string
	noConsole   bool
	noOTLP      bool

	rows      int
	seed      uint64
	testRatio float64
	format    string
	output    string

	httpAddr  string
	grpcAddr  string
	maxTraces int

	queryURL string
	limit    int
	results  string
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags   flagValues
	command string
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "otel-demo",
		Short: "Emit demo traces over OTLP and inspect them",
		Long: `Small programs instrumented with OpenTelemetry that export their spans
to Jaeger (or the bundled collector) for visualization.

Examples:
  # Minimal hello-world span
  otel-demo hello

  # Five-stage ML pipeline, results written as YAML
  otel-demo pipeline --format yaml --output results.yaml

  # Local collector standing in for Jaeger
  otel-demo collector

  # Print the traces a service produced
  otel-demo verify --service ml-observability-demo`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.endpoint, "endpoint", "", "OTLP endpoint (URL for http, host:port for grpc)")
	flags.StringVar(&a.flags.protocol, "protocol", "", "OTLP transport: http, grpc")
	flags.StringVar(&a.flags.service, "service", "", "service.name (defaults per subcommand)")
	flags.StringVar(&a.flags.environment, "environment", "", "deployment.environment resource attribute")
	flags.StringVar(&a.flags.uiURL, "ui-url", "", "Jaeger UI address printed in the instructions")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	flags.BoolVar(&a.flags.noConsole, "no-console", false, "disable the console span exporter")
	flags.BoolVar(&a.flags.noOTLP, "no-otlp", false, "disable the OTLP span exporter")

	root.AddCommand(
		newHelloCmd(a),
		newSmokeCmd(a),
		newPipelineCmd(a),
		newCollectorCmd(a),
		newVerifyCmd(a),
	)
	return root
}

// init loads the environment configuration, applies the flags that were
// set on cmd and builds the logger and metrics.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadEnv()
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := validate(cmd.Name(), cfg); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	a.command = cmd.Name()
	a.cfg = cfg
	a.logger = logger
	a.metrics = monitoring.NewMetrics()
	return nil
}

// validate checks only the sections command reads, so a bad value in an
// unrelated section does not block it.
func validate(command string, cfg *config.Config) error {
	checks := []func() error{cfg.ValidateLogging}
	switch command {
	case "hello", "smoke":
		checks = append(checks, cfg.ValidateTelemetry)
	case "pipeline":
		checks = append(checks, cfg.ValidateTelemetry, cfg.ValidatePipeline)
	case "collector":
		checks = append(checks, cfg.ValidateCollector)
	case "verify":
	default:
		return cfg.Validate()
	}

	errs := make([]error, 0, len(checks))
	for _, check := range checks {
		errs = append(errs, check())
	}
	return errors.Join(errs...)
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := a.flags

	if changed(cmd, "protocol") {
		cfg.Telemetry.Protocol = f.protocol
	}
	if changed(cmd, "endpoint") {
		if strings.EqualFold(cfg.Telemetry.Protocol, config.ProtocolGRPC) {
			cfg.Telemetry.GRPCEndpoint = f.endpoint
		} else {
			cfg.Telemetry.HTTPEndpoint = f.endpoint
		}
	}
	if changed(cmd, "service") {
		cfg.Service.Name = f.service
	}
	if changed(cmd, "environment") {
		cfg.Service.Environment = f.environment
	}
	if changed(cmd, "ui-url") {
		cfg.Jaeger.UIURL = f.uiURL
	}
	if changed(cmd, "log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed(cmd, "metrics-file") {
		cfg.Pipeline.MetricsFile = f.metricsFile
	}
	if f.noConsole {
		cfg.Telemetry.Console = false
	}
	if f.noOTLP {
		cfg.Telemetry.OTLP = false
	}

	if changed(cmd, "rows") {
		cfg.Pipeline.Rows = f.rows
	}
	if changed(cmd, "seed") {
		cfg.Pipeline.Seed = f.seed
	}
	if changed(cmd, "test-ratio") {
		cfg.Pipeline.TestRatio = f.testRatio
	}
	if changed(cmd, "format") {
		cfg.Pipeline.ExportFormat = f.format
	}
	if changed(cmd, "output") {
		cfg.Pipeline.OutputPath = f.output
	}

	if changed(cmd, "http-addr") {
		cfg.Collector.HTTPAddr = f.httpAddr
	}
	if changed(cmd, "grpc-addr") {
		cfg.Collector.GRPCAddr = f.grpcAddr
	}
	if changed(cmd, "max-traces") {
		cfg.Collector.MaxTraces = f.maxTraces
	}
}

func changed(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}
