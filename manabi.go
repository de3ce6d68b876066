// Package manabi is the public API for embedding the Manabi school ICT
// policy-maturity server.
//
// Consumers construct and extend the server without forking it:
//
//	app, err := manabi.New(
//	    manabi.WithVersion(version),
//	    manabi.WithLogger(logger),
//	    manabi.WithEventHook(myHook{}),
//	    manabi.WithExtraRoutes(myRoutes),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// manabi (root) imports internal/*, never the reverse. Public types are
// standalone structs; the converters live here because this is the only file
// that sees both sides of the boundary.
package manabi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ashita-ai/manabi/api"
	"github.com/ashita-ai/manabi/internal/auth"
	"github.com/ashita-ai/manabi/internal/config"
	"github.com/ashita-ai/manabi/internal/mcp"
	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/ratelimit"
	"github.com/ashita-ai/manabi/internal/search"
	"github.com/ashita-ai/manabi/internal/server"
	"github.com/ashita-ai/manabi/internal/service/schools"
	"github.com/ashita-ai/manabi/internal/storage"
	"github.com/ashita-ai/manabi/internal/storage/seed"
	"github.com/ashita-ai/manabi/internal/telemetry"
	"github.com/ashita-ai/manabi/migrations"
)

// App is the Manabi server lifecycle. Construct with New, run with Run.
type App struct {
	cfg          config.Config
	store        storage.Store
	svc          *schools.Service
	srv          *server.Server
	limiter      ratelimit.Limiter
	qdrantIndex  *search.QdrantIndex // nil when Qdrant is not configured
	syncer       *search.Syncer      // nil when Similar scans in process
	otelShutdown telemetry.Shutdown
	logCloser    io.Closer
	logger       *slog.Logger
	version      string
}

// New loads configuration, opens the store, runs migrations, wires every
// subsystem and returns a ready-to-run App. It starts no goroutines and
// accepts no connections; call Run for that.
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.databaseURL != nil {
		cfg.DatabaseURL = *o.databaseURL
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger := o.logger
	var logCloser io.Closer = io.NopCloser(nil)
	if logger == nil {
		logger, logCloser = config.NewLogger(cfg.Log, os.Stdout)
	}

	logger.Info("manabi starting", "version", version, "port", cfg.Port)

	ctx := context.Background()

	// Cleanup runs in reverse order on any construction failure.
	var cleanups []func()
	fail := func(err error) (*App, error) {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		return nil, err
	}
	cleanups = append(cleanups, func() { _ = logCloser.Close() })

	otelShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    cfg.OTELEndpoint,
		Insecure:    cfg.OTELInsecure,
		ServiceName: cfg.ServiceName,
		Version:     version,
	})
	if err != nil {
		return fail(fmt.Errorf("telemetry: %w", err))
	}
	cleanups = append(cleanups, func() { _ = otelShutdown(context.Background()) })

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, func() { store.Close(context.Background()) })

	if cfg.SeedDemoData {
		loaded, err := seed.LoadIfEmpty(ctx, store)
		if err != nil {
			return fail(err)
		}
		logger.Info("demo data", "loaded", loaded)
	}

	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration, logger)
	if err != nil {
		return fail(fmt.Errorf("auth: %w", err))
	}

	svcOpts := []schools.Option{schools.WithWorkers(cfg.ScoreWorkers)}

	// Similarity index and its background syncer: Qdrant when configured,
	// otherwise pgvector inside the Postgres store. The in-memory store has
	// no index and Similar scans in process.
	var (
		qdrantIndex *search.QdrantIndex
		syncer      *search.Syncer
		index       search.Index
	)
	if cfg.QdrantURL != "" {
		qdrantIndex, err = search.NewQdrantIndex(search.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
		}, logger)
		if err != nil {
			return fail(fmt.Errorf("qdrant: %w", err))
		}
		cleanups = append(cleanups, func() { _ = qdrantIndex.Close() })
		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			return fail(fmt.Errorf("qdrant ensure collection: %w", err))
		}
		index = qdrantIndex
		logger.Info("similarity index: qdrant", "collection", cfg.QdrantCollection)
	} else if db, ok := store.(*storage.DB); ok {
		index = search.NewPgvectorIndex(db.Pool())
		logger.Info("similarity index: pgvector")
	} else {
		logger.Info("similarity index: none (in-memory store), similar schools scanned in process")
	}
	if index != nil {
		syncer = search.NewSyncer(index, logger, cfg.SearchSyncInterval)
		svcOpts = append(svcOpts, schools.WithIndex(index), schools.WithProfileSink(syncer))
	}

	for _, h := range o.eventHooks {
		svcOpts = append(svcOpts, schools.WithHooks(&maturityHookAdapter{hook: h}))
	}

	svc := schools.New(store, logger, svcOpts...)

	// Queue every profile so a fresh or stale index catches up.
	if syncer != nil {
		if n, err := svc.Reindex(ctx); err != nil {
			logger.Warn("similarity reindex failed", "error", err)
		} else if n > 0 {
			logger.Info("similarity reindex queued", "schools", n)
		}
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}
	cleanups = append(cleanups, func() { _ = limiter.Close() })

	mcpSrv := mcp.New(svc, logger, version)

	var routes []server.RouteRegistrar
	for _, fn := range o.routeRegistrars {
		routes = append(routes, func(mux *http.ServeMux, requireRole func(model.Role) func(http.Handler) http.Handler) {
			fn(mux, authHelper{requireRole: requireRole})
		})
	}
	var middlewares []func(http.Handler) http.Handler
	for _, mw := range o.middlewares {
		middlewares = append(middlewares, mw)
	}

	srv := server.New(server.ServerConfig{
		Store:               store,
		Schools:             svc,
		JWTMgr:              jwtMgr,
		Logger:              logger,
		Limiter:             limiter,
		Index:               index,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		OpenAPISpec:         api.OpenAPISpec,
		Middlewares:         middlewares,
		Routes:              routes,
	})

	if err := srv.Handlers().SeedAdmin(ctx, cfg.AdminAPIKey); err != nil {
		return fail(fmt.Errorf("admin seed: %w", err))
	}

	return &App{
		cfg:          cfg,
		store:        store,
		svc:          svc,
		srv:          srv,
		limiter:      limiter,
		qdrantIndex:  qdrantIndex,
		syncer:       syncer,
		otelShutdown: otelShutdown,
		logCloser:    logCloser,
		logger:       logger,
		version:      version,
	}, nil
}

// openStore connects to Postgres and applies the embedded migrations, or
// returns an in-memory store when no database URL is configured.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("storage: no DATABASE_URL, using in-memory store (data is lost on restart)")
		return storage.NewMemoryStore(), nil
	}
	db, err := storage.New(ctx, cfg.DatabaseURL, cfg.MaxConns, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("migrations: %w", err)
	}
	logger.Info("storage: postgres ready")
	return db, nil
}

// Handler returns the root HTTP handler, for tests and embedding behind
// another server.
func (a *App) Handler() http.Handler {
	return a.srv.Handler()
}

// Run starts the background syncer and the HTTP server, then blocks until ctx
// is cancelled or the server fails. Shutdown runs automatically on return.
func (a *App) Run(ctx context.Context) error {
	if a.syncer != nil {
		a.syncer.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.logger.Error("http server failed", "error", runErr)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// Shutdown drains HTTP requests, flushes pending index writes and releases
// every resource.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("manabi shutting down")

	httpCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
	defer cancel()
	var errs []error
	if err := a.srv.Shutdown(httpCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if a.syncer != nil {
		a.syncer.Drain(httpCtx)
		if n := a.syncer.Pending(); n > 0 {
			a.logger.Warn("similarity sync incomplete, profiles will be reindexed on next start", "pending", n)
		}
	}

	_ = a.limiter.Close()
	if a.qdrantIndex != nil {
		_ = a.qdrantIndex.Close()
	}
	if err := a.otelShutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	a.store.Close(ctx)

	a.logger.Info("manabi stopped")
	_ = a.logCloser.Close()
	return errors.Join(errs...)
}

// maturityHookAdapter wraps a public EventHook to satisfy schools.MaturityHook.
type maturityHookAdapter struct {
	hook EventHook
}

func (a *maturityHookAdapter) OnMaturityChanged(ctx context.Context, v model.SchoolView) error {
	return a.hook.OnMaturityChanged(ctx, toPublicChange(v))
}

// authHelper implements AuthHelper over the server's role middleware.
type authHelper struct {
	requireRole func(model.Role) func(http.Handler) http.Handler
}

func (a authHelper) RequireRole(role Role) func(http.Handler) http.Handler {
	return a.requireRole(model.Role(role))
}

func toPublicChange(v model.SchoolView) MaturityChange {
	m := v.PolicyMaturity
	themes := m.Themes()
	out := make([]ThemeScore, len(themes))
	for i, t := range themes {
		out[i] = ThemeScore{Code: t.Code, Name: t.Name, Score: t.Score, Stage: string(t.Stage)}
	}
	return MaturityChange{
		SchoolID:         v.ID,
		Name:             v.Name,
		District:         v.District,
		OverallScore:     m.OverallScore,
		OverallStage:     string(m.OverallStage),
		ReadinessLevel:   string(m.ICTReadinessLevel),
		Themes:           out,
		DataCompleteness: m.DataCompleteness,
		CalculatedAt:     m.LastCalculated,
	}
}
