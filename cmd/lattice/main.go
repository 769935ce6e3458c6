// Command lattice is a command line client for the Lattice indexing
// service.
//
//	lattice add -source https://example.com/handbook.pdf
//	lattice wait -interval 5s job-1 job-2
//	lattice search -k 3 vacation policy
//
// Configuration comes from an optional YAML file (-config, LATTICE_CONFIG_PATH
// or ./lattice.yaml), a .env file and LATTICE_* environment variables, in
// increasing order of precedence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/prisma-ml-labs/lattice-go/v1/lattice"
	"github.com/prisma-ml-labs/lattice-go/v1/logger"
	"github.com/prisma-ml-labs/lattice-go/v1/metrics"
	"github.com/prisma-ml-labs/lattice-go/v1/observability"
	"github.com/prisma-ml-labs/lattice-go/v1/tracer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("lattice", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { usage(stderr) }
	configPath := global.String("config", "", "YAML configuration file")
	envFile := global.String("env-file", ".env", "dotenv file loaded before reading the environment")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if global.NArg() == 0 {
		usage(stderr)
		return 2
	}
	cmd, ok := findCommand(global.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", global.Arg(0))
		usage(stderr)
		return 2
	}

	// A missing dotenv file is normal outside development.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "load %s: %v\n", *envFile, err)
		return 1
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	var (
		client lattice.Client
		tr     *tracer.Tracer
		m      *metrics.Metrics
	)
	populate := []interface{}{&client, &tr}
	if cfg.Metrics.Enabled {
		populate = append(populate, &m)
	}

	app := fx.New(
		appOptions(cfg),
		fx.Populate(populate...),
	)
	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	env := newCmdEnv(client, stdout, m)
	cmdArgs := global.Args()[1:]

	ctx, span := startCommandSpan(ctx, tr, cmd.name, cfg.Lattice.KnowledgeBase, cmdArgs)
	runErr := cmd.run(ctx, env, cmdArgs)
	if runErr != nil {
		tr.RecordErrorOnSpan(span, runErr)
	}
	traceparent := tr.GetCarrier(ctx)[traceparentKey]
	span.End()

	if err := app.Stop(context.Background()); err != nil {
		fmt.Fprintln(stderr, err)
	}

	code := exitCode(runErr, stderr)
	if runErr != nil && cfg.Tracer.EnableExport && traceparent != "" {
		fmt.Fprintf(stderr, "traceparent: %s\n", traceparent)
	}
	return code
}

const traceparentKey = "traceparent"

// Environment variables a calling process sets to make a command part of
// its trace.
var traceEnv = map[string]string{
	traceparentKey: "TRACEPARENT",
	"tracestate":   "TRACESTATE",
	"baggage":      "BAGGAGE",
}

func traceCarrierFromEnv() map[string]string {
	carrier := make(map[string]string, len(traceEnv))
	for key, env := range traceEnv {
		if v := os.Getenv(env); v != "" {
			carrier[key] = v
		}
	}
	return carrier
}

// startCommandSpan opens the root span of a command. It continues the trace
// named by TRACEPARENT when set.
func startCommandSpan(ctx context.Context, tr *tracer.Tracer, name, knowledgeBase string, args []string) (context.Context, trace.Span) {
	ctx = tr.SetCarrierOnContext(ctx, traceCarrierFromEnv())
	ctx, span := tr.StartSpan(ctx, "lattice-cli."+name)
	tr.SetAttributes(span, map[string]interface{}{
		"lattice.command":        name,
		"lattice.knowledge_base": knowledgeBase,
		"lattice.args":           len(args),
	})
	return ctx, span
}

// appOptions wires the logger, tracer, optional metrics and the lattice
// client from cfg.
func appOptions(cfg Config) fx.Option {
	options := []fx.Option{
		fx.Supply(cfg.Lattice, cfg.Logger, cfg.Tracer),
		fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Zap}
		}),
		logger.FXModule,
		fx.Provide(
			func(l *logger.Logger) tracer.Logger { return l },
			func(l *logger.Logger) lattice.Logger { return l },
		),
		tracer.FXModule,
		lattice.FXModule,
	}

	if cfg.Metrics.Enabled {
		options = append(options,
			fx.Supply(cfg.Metrics.Config),
			metrics.FXModule,
			fx.Provide(func(m *metrics.Metrics) observability.Observer {
				return metrics.NewObserver(m, lattice.ErrorKind)
			}),
		)
	}

	return fx.Options(options...)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)

	switch {
	case errors.Is(err, errUsage), lattice.IsValidationError(err):
		return 2
	case errors.Is(err, ErrWaitDeadline):
		return 3
	default:
		return 1
	}
}
