// Package metrics exposes Prometheus metrics for the lattice client and CLI.
//
// NewMetrics creates an isolated registry with three client metrics:
//
//	<namespace>_client_operations_total{component,operation,outcome}
//	<namespace>_client_operation_duration_seconds{component,operation}
//	<namespace>_client_response_bytes_total{component,operation}
//
// They are fed through Observer, which implements observability.Observer and
// can be attached to the lattice client:
//
//	m := metrics.NewMetrics(metrics.Config{Namespace: "lattice"})
//	client = client.WithObserver(metrics.NewObserver(m, lattice.ErrorKind))
//
// FXModule serves the registry at /metrics for the lifetime of the app.
package metrics
