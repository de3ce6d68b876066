package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/manabi/internal/auth"
	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/ratelimit"
	"github.com/ashita-ai/manabi/internal/search"
	"github.com/ashita-ai/manabi/internal/service/schools"
	"github.com/ashita-ai/manabi/internal/storage"
)

// Server is the manabi HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// RouteRegistrar adds routes to the shared mux. requireRole wraps a handler
// with the server's role check.
type RouteRegistrar func(mux *http.ServeMux, requireRole func(model.Role) func(http.Handler) http.Handler)

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Limiter, Index, MCPServer, OpenAPISpec,
// Middlewares, Routes.
type ServerConfig struct {
	// Required dependencies.
	Store   storage.Store
	Schools *schools.Service
	JWTMgr  *auth.JWTManager
	Logger  *slog.Logger

	// Optional dependencies (nil = disabled).
	Limiter   ratelimit.Limiter
	Index     search.Index
	MCPServer *mcpserver.MCPServer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64

	OpenAPISpec []byte

	// Extension points. Middlewares wrap the whole chain, first = outermost.
	Middlewares []func(http.Handler) http.Handler
	Routes      []RouteRegistrar
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Store:               cfg.Store,
		Schools:             cfg.Schools,
		JWTMgr:              cfg.JWTMgr,
		Index:               cfg.Index,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		OpenAPISpec:         cfg.OpenAPISpec,
	})

	mux := http.NewServeMux()

	// Unauthenticated.
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /openapi.yaml", h.HandleOpenAPISpec)
	mux.HandleFunc("POST /auth/token", h.HandleAuthToken)

	adminOnly := requireRole(model.RoleAdmin)
	writeRole := requireRole(model.RoleFieldOfficer)
	readRole := requireRole(model.RoleViewer)

	// Accounts.
	mux.Handle("POST /v1/accounts", adminOnly(http.HandlerFunc(h.HandleCreateAccount)))
	mux.Handle("GET /v1/accounts", adminOnly(http.HandlerFunc(h.HandleListAccounts)))

	// Schools.
	mux.Handle("POST /v1/schools", writeRole(http.HandlerFunc(h.HandleCreateSchool)))
	mux.Handle("GET /v1/schools", readRole(http.HandlerFunc(h.HandleListSchools)))
	mux.Handle("GET /v1/schools/{school_id}", readRole(http.HandlerFunc(h.HandleGetSchool)))
	mux.Handle("PUT /v1/schools/{school_id}", writeRole(http.HandlerFunc(h.HandleUpdateSchool)))
	mux.Handle("DELETE /v1/schools/{school_id}", writeRole(http.HandlerFunc(h.HandleDeleteSchool)))
	mux.Handle("GET /v1/schools/{school_id}/maturity", readRole(http.HandlerFunc(h.HandleSchoolMaturity)))
	mux.Handle("GET /v1/schools/{school_id}/readiness", readRole(http.HandlerFunc(h.HandleSchoolReadiness)))
	mux.Handle("GET /v1/schools/{school_id}/trend", readRole(http.HandlerFunc(h.HandleSchoolTrend)))
	mux.Handle("GET /v1/schools/{school_id}/similar", readRole(http.HandlerFunc(h.HandleSimilarSchools)))

	// Reports.
	mux.Handle("POST /v1/schools/{school_id}/reports", writeRole(http.HandlerFunc(h.HandleCreateReport)))
	mux.Handle("GET /v1/schools/{school_id}/reports", readRole(http.HandlerFunc(h.HandleListReports)))
	mux.Handle("GET /v1/reports/{report_id}", readRole(http.HandlerFunc(h.HandleGetReport)))
	mux.Handle("PUT /v1/reports/{report_id}", writeRole(http.HandlerFunc(h.HandleUpdateReport)))
	mux.Handle("DELETE /v1/reports/{report_id}", writeRole(http.HandlerFunc(h.HandleDeleteReport)))

	// Analytics.
	mux.Handle("GET /v1/summary", readRole(http.HandlerFunc(h.HandleSummary)))
	mux.Handle("GET /v1/compare", readRole(http.HandlerFunc(h.HandleCompare)))
	mux.Handle("GET /v1/export/schools", readRole(http.HandlerFunc(h.HandleExportSchools)))

	// MCP StreamableHTTP transport (viewer+).
	if cfg.MCPServer != nil {
		mux.Handle("/mcp", readRole(mcpserver.NewStreamableHTTPServer(cfg.MCPServer)))
	}

	for _, register := range cfg.Routes {
		register(mux, requireRole)
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NoopLimiter{}
	}

	// Middleware chain (outermost executes first):
	// extra → request ID → security headers → tracing → logging → auth →
	// rate limit → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = ratelimit.Middleware(limiter, rateLimitKey, cfg.Logger)(handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(newHTTPMetrics(), handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		handler = cfg.Middlewares[i](handler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// rateLimitKey exempts health checks and keys everything else per account,
// or per IP before authentication.
func rateLimitKey(r *http.Request) string {
	if r.URL.Path == "/health" {
		return ""
	}
	return ratelimit.AccountKeyFunc(r)
}

// Handlers returns the underlying Handlers for access to SeedAdmin.
func (s *Server) Handlers() *Handlers {
	return s.handlers
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
