/*
Package receiver is a small local OTLP collector.

It accepts ExportTraceServiceRequests over OTLP/HTTP (protobuf or JSON) and
OTLP/gRPC, keeps the most recent traces in memory and serves them back in
the Jaeger query API shape, so the demos and the verify command can run
without a Jaeger container.

	POST /v1/traces            OTLP/HTTP ingest
	GET  /api/services         service names seen so far
	GET  /api/traces           ?service=&limit= newest traces first
	GET  /api/traces/:traceID  one trace
	GET  /metrics              Prometheus exposition
	GET  /health
*/
package receiver
