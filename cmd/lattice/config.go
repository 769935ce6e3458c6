package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/prisma-ml-labs/lattice-go/v1/lattice"
	"github.com/prisma-ml-labs/lattice-go/v1/logger"
	"github.com/prisma-ml-labs/lattice-go/v1/metrics"
	"github.com/prisma-ml-labs/lattice-go/v1/tracer"
)

// EnvConfigPath names the YAML file read when -config is not given.
const EnvConfigPath = "LATTICE_CONFIG_PATH"

const defaultConfigPath = "lattice.yaml"

// Config is the CLI configuration file. Every section is optional.
//
//	lattice:
//	  knowledge_base: handbook
//	  embedding_model: prisma-embed
//	  timeout: 45s
//	logger:
//	  level: debug
//	tracer:
//	  enable_export: true
//	  endpoint: http://otel-collector:4318
//	metrics:
//	  enabled: true
//	  address: ":9100"
type Config struct {
	Lattice lattice.Config `yaml:"lattice"`
	Logger  logger.Config  `yaml:"logger"`
	Tracer  tracer.Config  `yaml:"tracer"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// MetricsConfig enables the Prometheus endpoint for long running commands
// such as wait.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED"`

	metrics.Config `yaml:",inline"`
}

func defaultConfig() Config {
	return Config{
		Lattice: lattice.DefaultConfig(),
		Logger: logger.Config{
			Level:       logger.Warning,
			ServiceName: "lattice-cli",
		},
		Tracer: tracer.Config{
			ServiceName: "lattice-cli",
		},
		Metrics: MetricsConfig{
			Config: metrics.Config{
				Namespace: "lattice",
				Address:   metrics.DefaultMetricsAddress,
			},
		},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path, then LATTICE_* environment variables. An empty path falls back to
// LATTICE_CONFIG_PATH and then lattice.yaml; only an explicitly named file
// has to exist.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := cfg.Lattice.ApplyEnv(); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("ZAP_LOGGER_LEVEL"); ok && v != "" {
		cfg.Logger.Level = v
	}
	if v, ok := os.LookupEnv("METRICS_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}
