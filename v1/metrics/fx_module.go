package metrics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"

	"github.com/prisma-ml-labs/lattice-go/v1/logger"
)

// FXModule provides *Metrics and runs its HTTP server for the app lifetime.
var FXModule = fx.Module("metrics",
	fx.Provide(NewMetrics),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle starts the /metrics server on start and shuts it
// down on stop.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("Starting Prometheus metrics server", nil, map[string]interface{}{
					"address": m.Server.Addr,
				})

				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Error starting Prometheus metrics server", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Prometheus metrics server", nil, nil)
			return m.Server.Shutdown(ctx)
		},
	})
}
