package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Tracer from a Config and Logger in the graph.
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewTracerWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewTracerWithDI.
type TracerParams struct {
	fx.In

	Config Config
	Logger Logger
}

// NewTracerWithDI adapts NewClient to fx parameter injection.
func NewTracerWithDI(params TracerParams) (*Tracer, error) {
	return NewClient(params.Config, params.Logger)
}

// RegisterTracerLifecycle flushes and stops the provider on shutdown.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("shutting down tracer", nil, nil)
			if tracer.tracer == nil {
				tracer.logger.Warn("tracer was nil during shutdown", nil, nil)
				return nil
			}
			return tracer.Shutdown(ctx)
		},
	})
}
