package lattice

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/prisma-ml-labs/lattice-go/v1/observability"
)

const instrumentationName = "github.com/prisma-ml-labs/lattice-go/v1/lattice"

// operation tracks one client call from start to finish.
type operation struct {
	client      *LatticeClient
	name        string
	subResource string
	start       time.Time
	span        trace.Span
}

// startOperation opens the span for a call. The returned context must be
// used for the HTTP request so transport spans nest under it.
func (c *LatticeClient) startOperation(ctx context.Context, name, subResource string) (context.Context, *operation) {
	attrs := []attribute.KeyValue{
		attribute.String("lattice.operation", name),
		attribute.String("lattice.knowledge_base", c.cfg.KnowledgeBase),
	}
	if subResource != "" {
		attrs = append(attrs, attribute.String("lattice.job_id", subResource))
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "lattice."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, &operation{
		client:      c,
		name:        name,
		subResource: subResource,
		start:       time.Now(),
		span:        span,
	}
}

// finish ends the span, notifies the observer and logs the outcome.
func (op *operation) finish(ctx context.Context, size int64, err error) {
	duration := time.Since(op.start)

	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.span.SetAttributes(attribute.String("lattice.error_kind", string(KindOf(err))))
		if se, ok := AsServiceError(err); ok {
			op.span.SetAttributes(attribute.Int("lattice.status_code", se.StatusCode))
		}
	}
	op.span.End()

	op.client.observeOperation(op.name, op.subResource, duration, err, size)

	fields := map[string]interface{}{
		"operation":      op.name,
		"knowledge_base": op.client.cfg.KnowledgeBase,
		"duration_ms":    duration.Milliseconds(),
	}
	if op.subResource != "" {
		fields["job_id"] = op.subResource
	}

	switch KindOf(err) {
	case KindNone:
		if err != nil {
			op.client.logError(ctx, "lattice operation failed", err, fields)
			return
		}
		op.client.logDebug(ctx, "lattice operation completed", fields)
	case KindValidation, KindService:
		fields["error_kind"] = string(KindOf(err))
		op.client.logWarn(ctx, "lattice operation rejected", err, fields)
	default:
		fields["error_kind"] = string(KindOf(err))
		op.client.logError(ctx, "lattice operation failed", err, fields)
	}
}

// observeOperation notifies the observer about an operation if one is configured.
func (c *LatticeClient) observeOperation(operation, subResource string, duration time.Duration, err error, size int64) {
	if c == nil || c.observer == nil {
		return
	}

	var metadata map[string]interface{}
	if kind := KindOf(err); kind != KindNone {
		metadata = map[string]interface{}{"error_kind": string(kind)}
	}

	c.observer.ObserveOperation(observability.OperationContext{
		Component:   "lattice",
		Operation:   operation,
		Resource:    c.cfg.KnowledgeBase,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}

func (c *LatticeClient) logDebug(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.DebugWithContext(ctx, msg, nil, fields)
	}
}

func (c *LatticeClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (c *LatticeClient) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}

func (op *operation) setJobID(jobID string) {
	op.subResource = jobID
	op.span.SetAttributes(attribute.String("lattice.job_id", jobID))
}
