package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/core"
	"perfhub/internal/domain/exams"
	"perfhub/internal/domain/feishu"
	"perfhub/internal/domain/performance"
	"perfhub/internal/domain/questions"
	"perfhub/internal/platform/config"
	"perfhub/internal/platform/crypto"
	"perfhub/internal/platform/db"
	feishuapi "perfhub/internal/platform/feishu"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/platform/metrics"
	"perfhub/internal/transport/http/api"
	audithandler "perfhub/internal/transport/http/handlers/audit"
	authhandler "perfhub/internal/transport/http/handlers/auth"
	corehandler "perfhub/internal/transport/http/handlers/core"
	examhandler "perfhub/internal/transport/http/handlers/exams"
	feishuhandler "perfhub/internal/transport/http/handlers/feishu"
	performancehandler "perfhub/internal/transport/http/handlers/performance"
	questionhandler "perfhub/internal/transport/http/handlers/questions"
	"perfhub/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Metrics *metrics.Collector
	Router  http.Handler
}

// New connects to the database, brings the schema up to date, seeds it and
// assembles the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	api.ExposeErrorDetail(cfg.IsDevelopment())

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("data encryption key: %w", err)
	}
	if !sealer.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set; report provider secrets are stored unsealed")
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	app := &App{Config: cfg, DB: pool, Metrics: collector}
	app.Router = app.routes(sealer)
	return app, nil
}

func (a *App) Close() {
	a.DB.Close()
}

func (a *App) routes(sealer *crypto.Sealer) http.Handler {
	cfg := a.Config
	pool := a.DB
	perms := auth.StaticPermissions{}
	runner := jobs.New(pool)
	auditService := audit.New(pool)
	questionStore := questions.NewStore(pool)

	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.JWTTTL)
	authService.Metrics = a.Metrics
	client := feishuapi.NewClient(cfg.FeishuBaseURL, cfg.FeishuTimeout, cfg.FeishuRequestsPerSecond)

	authHandler := authhandler.NewHandler(authService)
	coreHandler := corehandler.NewHandler(core.NewService(core.NewStore(pool)), authService, auditService, perms)
	questionHandler := questionhandler.NewHandler(questions.NewService(questionStore), authService, perms)
	examHandler := examhandler.NewHandler(exams.NewService(exams.NewStore(pool), questionStore, a.Metrics), authService, perms)
	performanceHandler := performancehandler.NewHandler(
		performance.NewService(performance.NewStore(pool), runner, a.Metrics), authService, auditService, perms)
	feishuHandler := feishuhandler.NewHandler(
		feishu.NewService(feishu.NewStore(pool), client, sealer, runner, a.Metrics), authService, auditService, perms)
	auditHandler := audithandler.NewHandler(auditService, runner, perms)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Authenticate(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if a.Metrics != nil {
		router.With(middleware.RequireAuth(middleware.AuthRequired), middleware.RequirePermission(auth.PermAuditRead, perms)).
			Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
			})
	}

	listAuth := middleware.ParseAuthRequirement(cfg.PerformanceListAuth)
	rateLimit := middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute)
	sensitiveLimit := middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute)
	apiRoutes := func(r chi.Router) {
		r.Use(rateLimit)
		r.Use(sensitiveLimit)

		authHandler.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(listAuth))
			performanceHandler.RegisterListRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(middleware.AuthRequired))
			authHandler.RegisterRoutes(r)
			coreHandler.RegisterRoutes(r)
			questionHandler.RegisterRoutes(r)
			examHandler.RegisterRoutes(r)
			performanceHandler.RegisterRoutes(r)
			feishuHandler.RegisterRoutes(r)
			auditHandler.RegisterRoutes(r)
		})
	}
	router.Route("/api/v1", apiRoutes)
	// Older clients call the unversioned prefix.
	router.Route("/api", apiRoutes)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context) error {
	cfg := config.Load()
	slog.SetDefault(NewLogger(cfg.LogLevel))

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("perfhub listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func NewLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
