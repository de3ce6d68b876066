package manabi

import (
	"context"
	"net/http"
)

// EventHook receives asynchronous notifications when a mutation changes a
// school's policy maturity. Multiple hooks may be registered with
// WithEventHook. Failures are logged and never fail the originating request.
type EventHook interface {
	OnMaturityChanged(ctx context.Context, change MaturityChange) error
}

// RouteRegistrar registers additional routes on the shared HTTP mux. Extra
// routes share the auth chain, rate limiting and tracing of built-in routes.
// It is called once during New, after the built-in routes.
type RouteRegistrar func(mux *http.ServeMux, auth AuthHelper)

// AuthHelper gives a RouteRegistrar the server's role middleware.
type AuthHelper interface {
	RequireRole(role Role) func(http.Handler) http.Handler
}

// Middleware wraps the root HTTP handler. It sees every request, /health
// included. The first registered middleware is outermost.
type Middleware func(http.Handler) http.Handler
