/*
Package monitoring provides Prometheus metrics for the demos and the local
collector.

Each Metrics value owns its own registry, so a short-lived CLI run and a test
can create one without clashing with the global default registry.

# Usage

	metrics := monitoring.NewMetrics()

	timer := monitoring.NewTimer(metrics, "model_training")
	// ... run the stage ...
	timer.Observe(err) // ok, error or cancelled

	// Short-lived process: hand the numbers to node_exporter's textfile collector
	_ = metrics.WriteTextfile("/var/lib/node_exporter/otel_demo.prom")

	// Long-lived process: serve them
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
