package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/GriffinCanCode/observability-demo/internal/demo"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
	"github.com/GriffinCanCode/observability-demo/internal/pipeline"
)

func newPipelineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the instrumented five-stage ML pipeline",
		Long: `Generate a synthetic regression dataset, split it, fit a linear model,
evaluate it and export the results. Each stage is a child span of the
root "ml_pipeline" span.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			return a.emit(cmd.Context(), out, demo.ServicePipeline,
				func(ctx context.Context, cfg *config.Config, tracer trace.Tracer) error {
					runner, err := pipeline.NewRunner(cfg.Pipeline, tracer,
						pipeline.WithOutput(out),
						pipeline.WithLogger(a.logger.Named("pipeline")),
						pipeline.WithMetrics(a.metrics),
					)
					if err != nil {
						return err
					}

					fmt.Fprintln(out, "Starting instrumented ML pipeline...")
					fmt.Fprintln(out)
					if _, err := runner.Run(ctx); err != nil {
						fmt.Fprintf(out, "\nError during pipeline execution: %v\n", err)
						return err
					}
					demo.Section(out, "ML PIPELINE COMPLETED SUCCESSFULLY")
					return nil
				},
				"Explore the pipeline stages and performance metrics")
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&a.flags.rows, "rows", 0, "synthetic dataset rows")
	flags.Uint64Var(&a.flags.seed, "seed", 0, "seed for data generation and the split")
	flags.Float64Var(&a.flags.testRatio, "test-ratio", 0, "fraction of rows held out for evaluation")
	flags.StringVar(&a.flags.format, "format", "", "results format: "+strings.Join(pipeline.Formats(), ", "))
	flags.StringVarP(&a.flags.output, "output", "o", "", "write results to this file")
	return cmd
}
