// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Logs go to stderr by default so that stdout stays free for the demos'
// human-readable progress output.
//
// Example Usage:
//
//	logger := logging.NewDevelopment()
//	logger.Info("Tracer configured", zap.String("service", "positron-demo"))
//	logger.Error("Flush failed", zap.Error(err))
package logging
