package metrics

// DefaultMetricsAddress is where the /metrics server listens by default.
const DefaultMetricsAddress = ":9090"

// Config controls the Prometheus registry and its HTTP endpoint.
type Config struct {
	// Address the metrics server listens on, e.g. ":9090" or "127.0.0.1:9100".
	Address string `yaml:"address" env:"METRICS_ADDRESS"`

	// EnableDefaultCollectors registers the Go runtime, process and build
	// info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" env:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace prefixes every metric name, e.g. "lattice" gives
	// lattice_client_operations_total.
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE"`

	// ServiceName is added as a constant "service" label.
	ServiceName string `yaml:"service_name" env:"METRICS_SERVICE_NAME"`
}
