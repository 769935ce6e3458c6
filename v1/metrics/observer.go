package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prisma-ml-labs/lattice-go/v1/observability"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ErrorClassifier maps an operation error to a short label value such as
// "validation" or "service". It is only called with non-nil errors.
type ErrorClassifier func(err error) string

// Observer records observability.OperationContext events into the metrics
// registered by NewMetrics.
type Observer struct {
	metrics  *Metrics
	classify ErrorClassifier
}

var _ observability.Observer = (*Observer)(nil)

// NewObserver returns an Observer backed by m. A nil classify labels every
// failure with OutcomeError.
func NewObserver(m *Metrics, classify ErrorClassifier) *Observer {
	return &Observer{metrics: m, classify: classify}
}

// ObserveOperation implements observability.Observer.
func (o *Observer) ObserveOperation(ctx observability.OperationContext) {
	outcome := OutcomeSuccess
	if ctx.Error != nil {
		outcome = OutcomeError
		if o.classify != nil {
			if label := o.classify(ctx.Error); label != "" {
				outcome = label
			}
		}
	}

	o.metrics.operationsTotal.WithLabelValues(ctx.Component, ctx.Operation, outcome).Inc()
	o.metrics.operationDuration.WithLabelValues(ctx.Component, ctx.Operation).Observe(ctx.Duration.Seconds())
	if ctx.Size > 0 {
		o.metrics.responseBytes.WithLabelValues(ctx.Component, ctx.Operation).Add(float64(ctx.Size))
	}
}

// OperationsTotal exposes the operations counter, mainly for tests and
// custom dashboards in-process.
func (m *Metrics) OperationsTotal() *prometheus.CounterVec {
	return m.operationsTotal
}

// ClassifyBySentinel builds an ErrorClassifier that returns the label of the
// first pair whose sentinel matches the error via errors.Is.
func ClassifyBySentinel(pairs ...SentinelLabel) ErrorClassifier {
	return func(err error) string {
		for _, p := range pairs {
			if errors.Is(err, p.Sentinel) {
				return p.Label
			}
		}
		return ""
	}
}

// SentinelLabel pairs an outcome label with the sentinel error that selects it.
type SentinelLabel struct {
	Label    string
	Sentinel error
}
