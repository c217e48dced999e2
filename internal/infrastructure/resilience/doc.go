/*
Package resilience provides the circuit breaker that guards span export.

When the collector is down every export attempt waits for the full OTLP
timeout. The breaker counts consecutive export failures and, once tripped,
rejects further attempts immediately until a cool-down has passed.

# Usage

	breaker := resilience.New("otlp", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return exporter.ExportSpans(ctx, spans)
	})

A cancelled context is not held against the remote: it is returned without
counting as a failure.

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open
*/
package resilience
