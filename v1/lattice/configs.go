package lattice

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by DefaultConfig and NewClient.
const (
	DefaultBaseURL       = "http://lattice.prismalabs.xyz"
	DefaultKnowledgeBase = "default"
	DefaultTimeout       = 30 * time.Second
)

// Embedding models known to the service. Any other identifier is passed
// through untouched.
const (
	EmbeddingModelDS1         = "ds1"
	EmbeddingModelPrismaEmbed = "prisma-embed"
)

const maxTimeoutSeconds = float64(math.MaxInt64) / float64(time.Second)

// Environment variables read by NewConfig and Config.ApplyEnv.
const (
	EnvAPIKey         = "LATTICE_API_KEY"
	EnvKnowledgeBase  = "LATTICE_KNOWLEDGE_BASE"
	EnvBaseURL        = "LATTICE_BASE_URL"
	EnvEmbeddingModel = "LATTICE_EMBEDDING_MODEL"
	EnvTimeoutSeconds = "LATTICE_TIMEOUT_SECONDS"
)

// Config holds the connection settings of a client. A client copies the
// config at construction time; changing it afterwards has no effect.
//
// Example:
//
//	cfg := lattice.DefaultConfig()
//	cfg.APIKey = os.Getenv("LATTICE_API_KEY")
//	cfg.KnowledgeBase = "handbook"
//	cfg.EmbeddingModel = lattice.EmbeddingModelPrismaEmbed
type Config struct {
	// APIKey is sent as a bearer token on every request. Required.
	APIKey string `yaml:"api_key" env:"LATTICE_API_KEY"`

	// KnowledgeBase scopes every operation. Defaults to "default".
	KnowledgeBase string `yaml:"knowledge_base" env:"LATTICE_KNOWLEDGE_BASE"`

	// BaseURL is the service root without the /api/rag prefix. Trailing
	// slashes are stripped.
	BaseURL string `yaml:"base_url" env:"LATTICE_BASE_URL"`

	// EmbeddingModel, when set, is sent with every operation that accepts
	// one. Empty leaves the choice to the service.
	EmbeddingModel string `yaml:"embedding_model" env:"LATTICE_EMBEDDING_MODEL"`

	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" env:"LATTICE_TIMEOUT_SECONDS"`

	// Headers are added to every request. They can never replace the
	// Authorization header.
	Headers map[string]string `yaml:"headers"`
}

// DefaultConfig returns a config with every default filled in except the
// API key. The base URL honours LATTICE_BASE_URL.
func DefaultConfig() Config {
	return Config{
		KnowledgeBase: DefaultKnowledgeBase,
		BaseURL:       defaultBaseURL(),
		Timeout:       DefaultTimeout,
	}
}

// NewConfig reads the configuration from LATTICE_* environment variables
// on top of DefaultConfig. See ApplyEnv.
func NewConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides c with every non-empty LATTICE_* variable. A
// LATTICE_TIMEOUT_SECONDS that is not a positive number of seconds is a
// *ValidationError and leaves c untouched.
func (c *Config) ApplyEnv() error {
	timeout := c.Timeout
	if v := os.Getenv(EnvTimeoutSeconds); v != "" {
		d, err := ParseTimeoutSeconds(v)
		if err != nil {
			return err
		}
		timeout = d
	}

	c.APIKey = getenvDefault(EnvAPIKey, c.APIKey)
	c.KnowledgeBase = getenvDefault(EnvKnowledgeBase, c.KnowledgeBase)
	c.BaseURL = getenvDefault(EnvBaseURL, c.BaseURL)
	c.EmbeddingModel = getenvDefault(EnvEmbeddingModel, c.EmbeddingModel)
	c.Timeout = timeout
	return nil
}

// ParseTimeoutSeconds parses a positive, possibly fractional, number of
// seconds such as "2.5".
func ParseTimeoutSeconds(v string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || !(secs > 0) || secs > maxTimeoutSeconds {
		return 0, &ValidationError{
			Field:  "timeout",
			Reason: fmt.Sprintf("%s must be a positive number of seconds, got %q", EnvTimeoutSeconds, v),
		}
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Validate reports the first problem found in c, as a *ValidationError.
// It expects defaults to be applied already; NewClient does both.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &ValidationError{Field: "api_key", Reason: "is required"}
	}
	if c.KnowledgeBase == "" {
		return &ValidationError{Field: "knowledge_base", Reason: "must not be empty"}
	}
	if c.Timeout <= 0 {
		return &ValidationError{Field: "timeout", Reason: "must be positive"}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ValidationError{Field: "base_url", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "base_url", Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "base_url", Reason: "host is required"}
	}
	return nil
}

// withDefaults fills zero fields and normalises the base URL.
func (c Config) withDefaults() Config {
	if c.KnowledgeBase == "" {
		c.KnowledgeBase = DefaultKnowledgeBase
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL()
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if len(c.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		c.Headers = headers
	}
	return c
}

// Option adjusts the Config built by Connect.
type Option func(*Config)

// WithKnowledgeBase selects the knowledge base.
func WithKnowledgeBase(name string) Option {
	return func(c *Config) { c.KnowledgeBase = name }
}

// WithBaseURL points the client at another deployment.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) { c.BaseURL = baseURL }
}

// WithEmbeddingModel sets the default embedding model.
func WithEmbeddingModel(model string) Option {
	return func(c *Config) { c.EmbeddingModel = model }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}
}

func defaultBaseURL() string {
	return getenvDefault(EnvBaseURL, DefaultBaseURL)
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
