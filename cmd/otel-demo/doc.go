// Package main is the otel-demo command line.
//
// Every emitting subcommand installs one tracer provider with a console
// exporter and an OTLP exporter, opens its spans, then force-flushes and
// shuts the processors down before exiting so no span is left buffered.
//
// Subcommands:
//
//	hello      one "hello_trace" span with two attributes
//	smoke      one "test_span" span, the smallest connectivity check
//	pipeline   root "ml_pipeline" span with five stage spans
//	collector  local OTLP receiver with a Jaeger-compatible query API
//	verify     print the span trees stored for a service
//
// Configuration:
//   - Environment variables (OTEL_DEMO_*)
//   - CLI flags (override env vars)
//   - Defaults for a local Jaeger on ports 4317, 4318 and 16686
//
// Usage:
//
//	# Emit to Jaeger over OTLP/HTTP
//	otel-demo pipeline
//
//	# Emit over gRPC without console output
//	otel-demo hello --protocol grpc --endpoint localhost:4317 --no-console
//
//	# Run the local collector, then check what arrived
//	otel-demo collector
//	otel-demo verify --service positron-demo --query-url http://localhost:4318
//
// Signals:
//   - SIGINT, SIGTERM: abort the current run, flush, exit
package main
