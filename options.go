package manabi

import "log/slog"

// Option configures an App.
type Option func(*resolvedOptions)

type resolvedOptions struct {
	port            int
	databaseURL     *string
	logger          *slog.Logger
	version         string
	eventHooks      []EventHook
	routeRegistrars []RouteRegistrar
	middlewares     []Middleware
}

// WithPort overrides MANABI_PORT.
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithDatabaseURL overrides DATABASE_URL. An empty url selects the in-memory store.
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = &url }
}

// WithLogger sets the structured logger. Without it New builds one from the
// MANABI_LOG_* settings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version reported by /health, the MCP handshake and logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithEventHook registers a maturity-change hook. Every hook receives every event.
func WithEventHook(hook EventHook) Option {
	return func(o *resolvedOptions) { o.eventHooks = append(o.eventHooks, hook) }
}

// WithExtraRoutes registers additional routes on the shared mux, in
// registration order.
func WithExtraRoutes(fn RouteRegistrar) Option {
	return func(o *resolvedOptions) { o.routeRegistrars = append(o.routeRegistrars, fn) }
}

// WithMiddleware registers an outermost HTTP middleware. The first registered
// middleware is called first by every request.
func WithMiddleware(mw Middleware) Option {
	return func(o *resolvedOptions) { o.middlewares = append(o.middlewares, mw) }
}
