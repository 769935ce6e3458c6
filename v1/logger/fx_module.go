package logger

import (
	"context"
	"errors"
	"syscall"

	"go.uber.org/fx"
)

// FXModule provides *Logger from a Config supplied elsewhere in the graph.
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle flushes buffered entries on shutdown.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			err := client.Zap.Sync()
			// stderr is not syncable on most terminals
			if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
				return nil
			}
			return err
		},
	})
}
