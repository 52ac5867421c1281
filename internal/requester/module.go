package requester

import (
	"go.uber.org/fx"
)

// Module provides the requester module dependencies. It expects a
// *config.ClientConfig in the graph.
var Module = fx.Module("requester",
	fx.Provide(
		fx.Annotate(
			NewHTTPSession,
			fx.As(new(Session)),
		),
		fx.Annotate(
			NewHTTPAuthManager,
			fx.As(new(AuthManager)),
		),
		NewHTTPRequestBuilder,
		NewExecutor,
	),
)
