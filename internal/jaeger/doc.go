/*
Package jaeger speaks the subset of the Jaeger HTTP query API used to check
that exported traces arrived: listing services, searching traces by
service and fetching a trace by ID.

The same model types are served by the local receiver, so the client works
against either a real Jaeger instance (port 16686) or the receiver.

	client := jaeger.NewClient("http://localhost:16686")
	traces, err := client.Traces(ctx, "ml-observability-demo", 5)
	for _, t := range traces {
		jaeger.PrintTree(os.Stdout, t)
	}
*/
package jaeger
