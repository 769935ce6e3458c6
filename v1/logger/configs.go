package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config controls how the zap logger is built.
type Config struct {
	// Level is one of debug, info, warning, error. Anything else means info.
	Level string `yaml:"level" env:"ZAP_LOGGER_LEVEL"`

	// EnableTracing adds trace_id and span_id to entries written through the
	// *WithContext methods when the context carries a valid span.
	EnableTracing bool `yaml:"enable_tracing" env:"LOGGER_ENABLE_TRACING"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" env:"LOGGER_SERVICE_NAME"`
}
