// Package tracer sets up OpenTelemetry tracing for processes using the
// lattice client.
//
//	tr, err := tracer.NewClient(tracer.Config{
//		ServiceName:  "ingest-worker",
//		AppEnv:       "production",
//		EnableExport: true,
//	}, log)
//	defer tr.Shutdown(ctx)
//
// NewClient installs the provider and the W3C propagators globally. The
// lattice client starts one span per operation and its HTTP transport
// injects traceparent headers, so no per-request wiring is needed.
//
// GetCarrier and SetCarrierOnContext move trace context across boundaries
// that are not HTTP, such as queue messages.
package tracer
