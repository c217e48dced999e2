// Package ml is the workload traced by the pipeline demo: a seeded
// synthetic regression dataset, a train/test split and an ordinary least
// squares fit, all on top of gonum.
package ml
