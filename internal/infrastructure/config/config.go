package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix for every setting.
const Prefix = "OTEL_DEMO"

// Supported OTLP transports.
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// Config holds all application configuration.
type Config struct {
	Service   ServiceConfig
	Telemetry TelemetryConfig
	Jaeger    JaegerConfig
	Collector CollectorConfig
	Pipeline  PipelineConfig
	Logging   LogConfig
}

// ServiceConfig describes the emitting process. Name is set per subcommand.
type ServiceConfig struct {
	Name        string
	Namespace   string `default:"academic-observability"`
	Version     string `default:"1.0.0"`
	Environment string
}

// TelemetryConfig holds span export configuration.
type TelemetryConfig struct {
	Protocol      string        `default:"http"`
	HTTPEndpoint  string        `envconfig:"HTTP_ENDPOINT" default:"http://localhost:4318/v1/traces"`
	GRPCEndpoint  string        `envconfig:"GRPC_ENDPOINT" default:"localhost:4317"`
	Insecure      bool          `default:"true"`
	ExportTimeout time.Duration `envconfig:"EXPORT_TIMEOUT" default:"10s"`
	FlushTimeout  time.Duration `envconfig:"FLUSH_TIMEOUT" default:"10s"`
	Console       bool          `envconfig:"CONSOLE_EXPORTER" default:"true"`
	OTLP          bool          `envconfig:"OTLP_EXPORTER" default:"true"`
}

// JaegerConfig points at the Jaeger UI and its query API.
type JaegerConfig struct {
	UIURL string `envconfig:"UI_URL" default:"http://localhost:16686"`
}

// CollectorConfig holds the local receiver configuration.
type CollectorConfig struct {
	HTTPAddr    string   `envconfig:"HTTP_ADDR" default:":4318"`
	GRPCAddr    string   `envconfig:"GRPC_ADDR" default:":4317"`
	MaxTraces   int      `envconfig:"MAX_TRACES" default:"100"`
	IngestRPS   int      `envconfig:"INGEST_RPS" default:"50"`
	IngestBurst int      `envconfig:"INGEST_BURST" default:"100"`
	QueryRPS    int      `split_words:"true" default:"20"`
	QueryBurst  int      `split_words:"true" default:"40"`
	CORSOrigins []string `split_words:"true" default:"*"`
}

// PipelineConfig holds the ML pipeline inputs.
type PipelineConfig struct {
	Rows         int     `default:"500"`
	Seed         uint64  `default:"42"`
	TestRatio    float64 `envconfig:"TEST_RATIO" default:"0.2"`
	ExportFormat string  `envconfig:"EXPORT_FORMAT" default:"json"`
	OutputPath   string  `split_words:"true"`
	MetricsFile  string  `split_words:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `default:"info"`
	Development bool   `default:"true"`
}

// Load loads and validates configuration from environment variables. Keys
// are OTEL_DEMO_<SECTION>_<FIELD>, e.g. OTEL_DEMO_TELEMETRY_PROTOCOL.
func Load() (*Config, error) {
	cfg, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv reads the environment without validating, for callers that apply
// overrides before checking the result.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Namespace: "academic-observability",
			Version:   "1.0.0",
		},
		Telemetry: TelemetryConfig{
			Protocol:      ProtocolHTTP,
			HTTPEndpoint:  "http://localhost:4318/v1/traces",
			GRPCEndpoint:  "localhost:4317",
			Insecure:      true,
			ExportTimeout: 10 * time.Second,
			FlushTimeout:  10 * time.Second,
			Console:       true,
			OTLP:          true,
		},
		Jaeger: JaegerConfig{
			UIURL: "http://localhost:16686",
		},
		Collector: CollectorConfig{
			HTTPAddr:    ":4318",
			GRPCAddr:    ":4317",
			MaxTraces:   100,
			IngestRPS:   50,
			IngestBurst: 100,
			QueryRPS:    20,
			QueryBurst:  40,
			CORSOrigins: []string{"*"},
		},
		Pipeline: PipelineConfig{
			Rows:         500,
			Seed:         42,
			TestRatio:    0.2,
			ExportFormat: "json",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: true,
		},
	}
}

// Validate rejects settings that cannot produce a working exporter or pipeline.
func (c *Config) Validate() error {
	return errors.Join(
		c.ValidateTelemetry(),
		c.ValidatePipeline(),
		c.ValidateCollector(),
		c.ValidateLogging(),
	)
}

// ValidateTelemetry checks the exporter settings.
func (c *Config) ValidateTelemetry() error {
	switch strings.ToLower(c.Telemetry.Protocol) {
	case ProtocolHTTP:
		if _, err := url.ParseRequestURI(c.Telemetry.HTTPEndpoint); err != nil {
			return fmt.Errorf("telemetry.http_endpoint is invalid: %w", err)
		}
	case ProtocolGRPC:
		if c.Telemetry.GRPCEndpoint == "" {
			return fmt.Errorf("telemetry.grpc_endpoint is required")
		}
	default:
		return fmt.Errorf("invalid protocol '%s'. Valid protocols: http, grpc", c.Telemetry.Protocol)
	}

	if c.Telemetry.ExportTimeout <= 0 {
		return fmt.Errorf("telemetry.export_timeout must be positive")
	}
	if c.Telemetry.FlushTimeout <= 0 {
		return fmt.Errorf("telemetry.flush_timeout must be positive")
	}
	return nil
}

// ValidatePipeline checks the ML pipeline inputs.
func (c *Config) ValidatePipeline() error {
	if c.Pipeline.Rows < 2 {
		return fmt.Errorf("pipeline.rows must be at least 2")
	}
	if c.Pipeline.TestRatio <= 0 || c.Pipeline.TestRatio >= 1 {
		return fmt.Errorf("pipeline.test_ratio must be between 0 and 1")
	}
	return nil
}

// ValidateCollector checks the local receiver settings.
func (c *Config) ValidateCollector() error {
	if c.Collector.MaxTraces < 1 {
		return fmt.Errorf("collector.max_traces must be at least 1")
	}
	return nil
}

// ValidateLogging checks the log level.
func (c *Config) ValidateLogging() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s'. Valid levels: debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// WithService returns a copy with the service name filled in when unset.
func (c *Config) WithService(name string) *Config {
	clone := *c
	if clone.Service.Name == "" {
		clone.Service.Name = name
	}
	return &clone
}
