package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns an isolated registry, the client operation metrics and the
// HTTP server exposing them.
type Metrics struct {
	// Server serves the registry at /metrics.
	Server *http.Server

	// Registry holds every metric registered through this instance.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	responseBytes     *prometheus.CounterVec
}

// NewMetrics creates the registry and registers the client operation metrics.
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	var registerer prometheus.Registerer = registry
	if cfg.ServiceName != "" {
		registerer = prometheus.WrapRegistererWith(
			prometheus.Labels{"service": cfg.ServiceName},
			registry,
		)
	}

	m := &Metrics{
		Registry:   registry,
		registerer: registerer,
		namespace:  cfg.Namespace,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "client_operations_total",
		"Total number of client operations by component, operation and outcome",
		[]string{"component", "operation", "outcome"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "client_operation_duration_seconds",
		"Duration of client operations in seconds",
		[]string{"component", "operation"}, prometheus.DefBuckets)
	m.responseBytes = createCounterVec(cfg.Namespace, "client_response_bytes_total",
		"Total response bytes received by client operations",
		[]string{"component", "operation"})

	registerer.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.responseBytes,
	)

	if cfg.EnableDefaultCollectors {
		registerer.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	address := cfg.Address
	if address == "" {
		address = DefaultMetricsAddress
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    address,
		Handler: mux,
	}
	return m
}
