// Package observability defines the hook that clients use to report
// completed operations to metrics, tracing or auditing backends.
//
// Clients never depend on a concrete backend. They accept an Observer and call
// ObserveOperation once per finished operation:
//
//	client = client.WithObserver(myObserver)
//
// A Prometheus-backed implementation lives in the metrics package.
package observability

import "time"

// Observer receives one notification per completed client operation.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a single completed operation.
type OperationContext struct {
	// Component is the client that performed the operation, e.g. "lattice".
	Component string

	// Operation is the logical operation name, e.g. "search" or "add".
	Operation string

	// Resource is the primary resource the operation targeted
	// (knowledge base, bucket, key, exchange, ...).
	Resource string

	// SubResource carries secondary context such as a job id.
	SubResource string

	// Duration is the wall-clock time the operation took.
	Duration time.Duration

	// Error is the error returned to the caller, or nil on success.
	Error error

	// Size is the number of bytes received, when known.
	Size int64

	// Metadata holds component-specific extra fields.
	Metadata map[string]interface{}
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
