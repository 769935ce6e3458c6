package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultServiceName is used when Config.ServiceName is empty.
const DefaultServiceName = "lattice-go"

// Logger wraps a zap.Logger with the (msg, err, fields) call shape used by the
// lattice client, the tracer and the metrics server.
type Logger struct {
	// Zap is the underlying logger, exposed for callers that need zap directly.
	Zap *zap.Logger

	// tracingEnabled makes the *WithContext methods emit trace and span ids.
	tracingEnabled bool
}

// NewLoggerClient builds a JSON logger writing to stderr.
func NewLoggerClient(cfg Config) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: false,
		Sampling:          nil,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths: []string{
			"stderr",
		},
		ErrorOutputPaths: []string{
			"stderr",
		},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": serviceName,
		},
	}

	logger, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}

	return &Logger{
		Zap:            logger,
		tracingEnabled: cfg.EnableTracing,
	}
}

// NewFromZap wraps an existing zap logger, e.g. one built on a test core.
func NewFromZap(z *zap.Logger, enableTracing bool) *Logger {
	return &Logger{Zap: z, tracingEnabled: enableTracing}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
