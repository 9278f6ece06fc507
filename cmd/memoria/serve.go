// AngelaMos | 2026
// serve.go

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/memoria/internal/admin"
	"github.com/carterperez-dev/memoria/internal/analytics"
	"github.com/carterperez-dev/memoria/internal/auth"
	"github.com/carterperez-dev/memoria/internal/billing"
	"github.com/carterperez-dev/memoria/internal/chat"
	"github.com/carterperez-dev/memoria/internal/core"
	"github.com/carterperez-dev/memoria/internal/health"
	"github.com/carterperez-dev/memoria/internal/holiday"
	"github.com/carterperez-dev/memoria/internal/memory"
	"github.com/carterperez-dev/memoria/internal/middleware"
	"github.com/carterperez-dev/memoria/internal/server"
	"github.com/carterperez-dev/memoria/internal/user"
)

const (
	drainDelay         = 5 * time.Second
	tokenPruneInterval = time.Hour
	holidayRatePerMin  = 20
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func serve(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized", "endpoint", cfg.Otel.Endpoint)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(ctx, db.DB.DB, core.MigrateUp); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized", "algorithm", "ES256")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB.DB, "memoria"),
	)

	userSvc := user.NewService(user.NewRepository(db.DB))
	userHandler := user.NewHandler(userSvc)

	var social auth.IdentityVerifier
	if cfg.OIDC.ClientID != "" {
		social = auth.NewOIDCVerifier(cfg.OIDC)
	}
	authSvc := auth.NewService(auth.NewRepository(db.DB), jwtManager, userSvc, rdb.Client, social)
	authHandler := auth.NewHandler(authSvc)

	memorySvc := memory.NewService(memory.NewRepository(db.DB))
	memoryHandler := memory.NewHandler(memorySvc)

	chatHandler := chat.NewHandler(chat.NewService(chat.NewRepository(db.DB), cfg.Chat))

	var calendar holiday.Calendar = holiday.NewClient(cfg.Holiday, registry)
	if cfg.Holiday.CacheTTL > 0 {
		calendar = holiday.NewCachedCalendar(calendar, rdb.Client, cfg.Holiday.CacheTTL, logger)
	}

	analyticsRepo := analytics.NewRepository(db.DB)
	analyticsHandler := analytics.NewHandler(analytics.NewService(
		analyticsRepo,
		memorySvc,
		holiday.NewService(calendar),
		cfg.Analytics,
	))

	billingHandler := billing.NewHandler(billing.NewService(billing.NewRepository(db.DB)))

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: rdb},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: rdb.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  rdb.Ping,
		Content:    analyticsRepo,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	limiter := middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerWindow(cfg.RateLimit.Requests, cfg.RateLimit.Burst, cfg.RateLimit.Window),
		FailOpen: true,
	})
	holidayLimiter := middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(holidayRatePerMin, holidayRatePerMin/2),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	})

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.NewMetrics(registry).Handler)
	router.Use(limiter.Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.Timezone(cfg.Analytics.DefaultLocation()))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())

	authenticate := middleware.Authenticator(authSvc)
	if cfg.RateLimit.Tiered {
		tiered := limiter.Tiered(middleware.DefaultTiers)
		authenticate = chainMiddleware(authenticate, tiered)
	}
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticate)

		userHandler.RegisterRoutes(r, authenticate)
		userHandler.RegisterAdminRoutes(r, authenticate, adminOnly)

		chatHandler.RegisterRoutes(r, authenticate)
		memoryHandler.RegisterRoutes(r, authenticate)

		analyticsHandler.RegisterRoutes(r, authenticate)
		analyticsHandler.RegisterPublicRoutes(r, holidayLimiter.Handler)

		billingHandler.RegisterRoutes(r, authenticate)
		billingHandler.RegisterAdminRoutes(r, authenticate, adminOnly)

		adminHandler.RegisterRoutes(r, authenticate, adminOnly)
	})

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneTokens(pruneCtx, authSvc, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// chainMiddleware applies mws in order, the first outermost.
func chainMiddleware(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

func pruneTokens(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(tokenPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PruneExpiredTokens(ctx)
			if err != nil {
				logger.Warn("prune refresh tokens failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("pruned refresh tokens", "count", n)
			}
		}
	}
}

