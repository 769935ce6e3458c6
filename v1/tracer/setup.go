package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Logger is the subset of *logger.Logger the tracer needs.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Tracer owns the process-wide TracerProvider. NewClient installs it as the
// global provider so instrumented clients (lattice, otelhttp) pick it up
// without further wiring.
type Tracer struct {
	tracer *trace.TracerProvider
	logger Logger
}

// NewClient builds the provider, registers it globally together with the W3C
// trace-context and baggage propagators, and returns the wrapper.
//
// Extra provider options (for example a span processor in tests) are appended
// after the exporter and resource options.
func NewClient(cfg Config, logger Logger, opts ...trace.TracerProviderOption) (*Tracer, error) {
	var options []trace.TracerProviderOption

	if cfg.EnableExport {
		var clientOpts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		}
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(clientOpts...))
		if err != nil {
			logger.Error("cannot initiate trace exporter", err, nil)
			return nil, err
		}
		options = append(options, trace.WithBatcher(exporter))
	}

	options = append(options, trace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))
	options = append(options, opts...)

	tp := trace.NewTracerProvider(options...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("tracer initialised", nil, map[string]interface{}{
		"service": cfg.ServiceName,
		"export":  cfg.EnableExport,
	})

	return &Tracer{tracer: tp, logger: logger}, nil
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.tracer == nil {
		return nil
	}
	return t.tracer.Shutdown(ctx)
}
