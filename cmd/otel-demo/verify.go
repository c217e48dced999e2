package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/observability-demo/internal/demo"
	"github.com/GriffinCanCode/observability-demo/internal/jaeger"
	"github.com/GriffinCanCode/observability-demo/internal/pipeline"
)

func newVerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Print the span trees a service sent to Jaeger",
		Long: `Query the Jaeger HTTP API (or the local collector) for the most recent
traces of a service and print each as a span tree. The service may be a
glob such as "*-demo". With --results, the run_id of a pipeline results
file must also appear on one of the traces. Exits non-zero when no trace is
found or the results do not match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.WithService(demo.ServicePipeline)
			queryURL := cfg.Jaeger.UIURL
			if changed(cmd, "query-url") {
				queryURL = a.flags.queryURL
			}
			service := cfg.Service.Name

			a.logger.Debug("Querying traces",
				zap.String("url", queryURL),
				zap.String("service", service),
				zap.Int("limit", a.flags.limit),
			)

			client := jaeger.NewClient(queryURL)
			services := []string{service}
			if jaeger.IsPattern(service) {
				known, err := client.Services(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to query %s: %w", queryURL, err)
				}
				if services, err = jaeger.MatchServices(known, service); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			var found []jaeger.Trace
			for _, name := range services {
				traces, err := client.Traces(cmd.Context(), name, a.flags.limit)
				if err != nil {
					return fmt.Errorf("failed to query %s: %w", queryURL, err)
				}
				if len(traces) == 0 {
					continue
				}
				found = append(found, traces...)

				demo.Section(out, fmt.Sprintf("%d trace(s) for %s", len(traces), name))
				for _, t := range traces {
					jaeger.PrintTree(out, t)
					fmt.Fprintln(out)
				}
			}
			if len(found) == 0 {
				return fmt.Errorf("no traces found for service %q", service)
			}

			if a.flags.results == "" {
				return nil
			}
			t, res, err := matchResults(a.flags.results, found)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Results %s (%s, mse=%.6f) match trace %s\n",
				res.RunID, a.flags.results, res.MSE, t.TraceID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&a.flags.queryURL, "query-url", "", "Jaeger query API base URL (default: the UI URL)")
	flags.IntVar(&a.flags.limit, "limit", jaeger.DefaultLimit, "maximum traces to fetch")
	flags.StringVar(&a.flags.results, "results", "", "pipeline results file whose run_id must appear in a trace")
	return cmd
}

// matchResults finds the trace whose pipeline root carries the run ID of the
// results file at path.
func matchResults(path string, traces []jaeger.Trace) (*jaeger.Trace, *pipeline.Results, error) {
	format, err := pipeline.FormatFromPath(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read results: %w", err)
	}
	res, err := pipeline.DecodeResults(data, format)
	if err != nil {
		return nil, nil, err
	}
	if res.RunID == "" {
		return nil, nil, fmt.Errorf("%s has no run_id", path)
	}

	for i := range traces {
		for _, span := range traces[i].Find(pipeline.SpanPipeline) {
			if kv, ok := span.Tag(pipeline.AttrRunID); ok && fmt.Sprint(kv.Value) == res.RunID {
				return &traces[i], res, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("no trace found with %s=%s", pipeline.AttrRunID, res.RunID)
}
