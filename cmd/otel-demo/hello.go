package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/GriffinCanCode/observability-demo/internal/demo"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
)

func newHelloCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Emit a single hello_trace span",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			return a.emit(cmd.Context(), out, demo.ServiceHello,
				func(ctx context.Context, _ *config.Config, tracer trace.Tracer) error {
					fmt.Fprintln(out, "Creating test trace...")
					if err := demo.Hello(ctx, tracer, out); err != nil {
						return err
					}
					fmt.Fprintln(out, "\nTrace created successfully.")
					return nil
				})
		},
	}
}

func newSmokeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Emit one test_span to check that export works at all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			err := a.emit(cmd.Context(), out, demo.ServiceSmoke,
				func(ctx context.Context, _ *config.Config, tracer trace.Tracer) error {
					demo.Section(out, "Creating a test span...")
					if err := demo.Smoke(ctx, tracer, out); err != nil {
						return err
					}
					fmt.Fprintln(out, "  -> Span ended.")
					return nil
				},
				"You should see 1 trace with 1 span named 'test_span'")
			if err != nil {
				return err
			}
			demo.Section(out, "SUCCESS! If you see span details above, tracing works!")
			return nil
		},
	}
}
