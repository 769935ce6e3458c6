package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// convertToZapFields turns an optional error and field maps into zap fields.
// Later maps override earlier ones for duplicate keys.
func (l *Logger) convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	merged := make(map[string]interface{})
	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			merged[key] = value
		}
	}

	zapFields := make([]zap.Field, 0, len(merged)+1)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	for key, value := range merged {
		zapFields = append(zapFields, zap.Any(key, value))
	}
	return zapFields
}

// traceFields returns trace_id and span_id for the span stored in ctx.
// It returns nil when tracing is disabled or the span context is invalid.
func (l *Logger) traceFields(ctx context.Context) []zap.Field {
	if !l.tracingEnabled || ctx == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

func (l *Logger) withContext(ctx context.Context, err error, fields ...map[string]interface{}) []zap.Field {
	return append(l.convertToZapFields(err, fields...), l.traceFields(ctx)...)
}

// Info logs general progress and successful operations.
//
//	log.Info("document submitted", nil, map[string]interface{}{"job_id": id})
func (l *Logger) Info(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, fields...)...)
}

// Debug logs verbose diagnostics.
func (l *Logger) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, fields...)...)
}

// Warn logs conditions that are not failures but deserve attention.
func (l *Logger) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, fields...)...)
}

// Error logs a failed operation.
//
//	if err != nil {
//	    log.Error("search failed", err, map[string]interface{}{"knowledge_base": kb})
//	}
func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, fields...)...)
}

// Fatal logs and then calls os.Exit(1).
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Fatal(msg, l.convertToZapFields(err, fields...)...)
}

// InfoWithContext is Info plus trace correlation fields from ctx.
func (l *Logger) InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.withContext(ctx, err, fields...)...)
}

// DebugWithContext is Debug plus trace correlation fields from ctx.
func (l *Logger) DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.withContext(ctx, err, fields...)...)
}

// WarnWithContext is Warn plus trace correlation fields from ctx.
func (l *Logger) WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.withContext(ctx, err, fields...)...)
}

// ErrorWithContext is Error plus trace correlation fields from ctx.
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.withContext(ctx, err, fields...)...)
}
