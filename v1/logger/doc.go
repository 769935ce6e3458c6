// Package logger provides the structured zap logger shared by the lattice
// client, the tracer and the CLI.
//
// Basic usage:
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		EnableTracing: true,
//	})
//
//	log.Info("client ready", nil, map[string]interface{}{"knowledge_base": "docs"})
//	log.ErrorWithContext(ctx, "search failed", err, nil)
//
// The *WithContext variants add trace_id and span_id when tracing is enabled
// and ctx carries a sampled OpenTelemetry span.
//
// With fx, supply a logger.Config and include logger.FXModule; the module
// syncs the logger on shutdown.
//
// All methods are safe for concurrent use.
package logger
