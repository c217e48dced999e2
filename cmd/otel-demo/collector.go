package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/observability-demo/internal/demo"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/server"
)

func newCollectorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collector",
		Short: "Run a local OTLP receiver with a Jaeger-compatible query API",
		Long: `Accept OTLP spans over HTTP (POST /v1/traces) and gRPC, keep the most
recent traces in memory and serve them on /api/services, /api/traces and
/api/traces/{id}. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := server.NewServer(a.cfg, a.logger.Named("collector"), a.metrics)

			out := cmd.OutOrStdout()
			demo.Section(out, "Local collector")
			fmt.Fprintf(out, "  OTLP/HTTP and query API: %s\n", a.cfg.Collector.HTTPAddr)
			if a.cfg.Collector.GRPCAddr != "" {
				fmt.Fprintf(out, "  OTLP/gRPC:               %s\n", a.cfg.Collector.GRPCAddr)
			}
			fmt.Fprintln(out, "  Press Ctrl+C to stop.")

			return srv.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&a.flags.httpAddr, "http-addr", "", "OTLP/HTTP and query API listen address")
	flags.StringVar(&a.flags.grpcAddr, "grpc-addr", "", "OTLP/gRPC listen address (empty disables)")
	flags.IntVar(&a.flags.maxTraces, "max-traces", 0, "traces kept in memory")
	return cmd
}
