// Package middleware provides the gin middleware used by the local collector.
//
// Middleware stack includes:
//   - CORS: lets browser instrumentation post OTLP/HTTP from another origin
//   - RateLimit: per-IP token bucket for the query API
//   - Limit: one shared token bucket, used for ingest across HTTP and gRPC
//   - RequestID: X-Request-ID on every response, echoed into the logs
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.POST("/v1/traces", middleware.Limit(limiter), handlers.Ingest)
package middleware
