package lattice

import (
	"context"

	"go.uber.org/fx"

	"github.com/prisma-ml-labs/lattice-go/v1/observability"
)

// FXModule provides *LatticeClient and the Client interface.
//
// A Config must be supplied by the application; Logger and
// observability.Observer are picked up when present.
//
//	app := fx.New(
//	    fx.Provide(lattice.NewConfig),
//	    lattice.FXModule,
//	    fx.Invoke(func(c lattice.Client) { ... }),
//	)
var FXModule = fx.Module("lattice",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(c *LatticeClient) *LatticeClient { return c },
			fx.As(new(Client)),
		),
	),
	fx.Invoke(RegisterLatticeLifecycle),
)

// LatticeParams groups the dependencies of NewClientWithDI.
type LatticeParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI builds the client and attaches the optional logger and
// observer.
func NewClientWithDI(params LatticeParams) (*LatticeClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		client = client.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		client = client.WithObserver(params.Observer)
	}
	return client, nil
}

// RegisterLatticeLifecycle releases idle connections on shutdown.
func RegisterLatticeLifecycle(lc fx.Lifecycle, client *LatticeClient) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if client.logger != nil {
				client.logger.InfoWithContext(ctx, "Lattice client ready", nil, map[string]interface{}{
					"base_url":       client.cfg.BaseURL,
					"knowledge_base": client.cfg.KnowledgeBase,
				})
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if client.logger != nil {
				client.logger.InfoWithContext(ctx, "Shutting down Lattice client", nil, nil)
			}
			return client.Close()
		},
	})
}
