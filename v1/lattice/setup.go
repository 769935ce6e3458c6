package lattice

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/prisma-ml-labs/lattice-go/v1/observability"
)

// Version is sent in the User-Agent header.
const Version = "0.1.0"

const (
	authorizationHeader = "Authorization"
	userAgent           = "lattice-go/" + Version
)

// LatticeClient talks to one knowledge base of the Lattice service.
//
// It holds only immutable configuration and a goroutine-safe HTTP client,
// so one instance can serve any number of concurrent calls.
type LatticeClient struct {
	cfg Config

	httpClient *http.Client
	transport  *http.Transport

	// observer provides optional observability hooks for tracking operations
	observer observability.Observer

	// logger provides optional context-aware logging
	logger Logger
}

// NewClient applies defaults to cfg, validates it and builds a client.
// Validation failures are returned as *ValidationError.
//
// Example:
//
//	client, err := lattice.NewClient(lattice.Config{
//	    APIKey:        os.Getenv("LATTICE_API_KEY"),
//	    KnowledgeBase: "handbook",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func NewClient(cfg Config) (*LatticeClient, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &LatticeClient{
		cfg:       cfg,
		transport: transport,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}, nil
}

// Connect builds a client from an API key and options. Unset options take
// the same defaults as DefaultConfig.
//
//	client, err := lattice.Connect(apiKey,
//	    lattice.WithKnowledgeBase("handbook"),
//	    lattice.WithEmbeddingModel(lattice.EmbeddingModelDS1),
//	)
func Connect(apiKey string, opts ...Option) (*LatticeClient, error) {
	cfg := DefaultConfig()
	cfg.APIKey = apiKey
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewClient(cfg)
}

// Config returns a copy of the effective configuration.
func (c *LatticeClient) Config() Config {
	cfg := c.cfg
	if len(c.cfg.Headers) > 0 {
		cfg.Headers = make(map[string]string, len(c.cfg.Headers))
		for k, v := range c.cfg.Headers {
			cfg.Headers[k] = v
		}
	}
	return cfg
}

// Close releases idle connections. The client stays usable afterwards.
func (c *LatticeClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// WithObserver attaches an observer notified once per completed operation
// and returns the client for chaining. Call it before sharing the client
// between goroutines.
//
//	client = client.WithObserver(metrics.NewObserver(m, nil))
func (c *LatticeClient) WithObserver(observer observability.Observer) *LatticeClient {
	c.observer = observer
	return c
}

// WithLogger attaches a logger and returns the client for chaining. Call it
// before sharing the client between goroutines.
func (c *LatticeClient) WithLogger(logger Logger) *LatticeClient {
	c.logger = logger
	return c
}
