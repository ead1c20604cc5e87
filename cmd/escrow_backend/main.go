package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/campus_escrow/internal/adapters/paystack"
	"github.com/SscSPs/campus_escrow/internal/adapters/redislock"
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/core/services"
	"github.com/SscSPs/campus_escrow/internal/handlers"
	"github.com/SscSPs/campus_escrow/internal/middleware"
	"github.com/SscSPs/campus_escrow/internal/platform/config"
	"github.com/SscSPs/campus_escrow/internal/repositories/database/pgsql"
	"github.com/SscSPs/campus_escrow/internal/repositories/memory"
	"github.com/SscSPs/campus_escrow/internal/utils"
	"github.com/SscSPs/campus_escrow/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:generate swag init --dir ./,../../internal/handlers --generalInfo main.go --output ../docs --outputTypes go

// @title Campus Escrow API
// @version 1.0
// @description Escrow ledger for campus marketplace orders.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := setupStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize escrow store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("Invalid REDIS_URL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		logger.Info("Redis client configured for sweep lock and rate limiting")
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	collab := services.Collaborators{Events: posthogClient}
	if cfg.PaystackSecretKey != "" {
		paystackClient := paystack.NewClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL, nil)
		collab.Verifier = paystackClient
		collab.Initializer = paystackClient
	}

	serviceContainer := services.NewServiceContainer(cfg, repos, collab)

	worker := setupAutoReleaseWorker(cfg, serviceContainer, redisClient, posthogClient, logger)
	if worker != nil {
		worker.Start(ctx)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter, err := middleware.NewLimiter(cfg.RateLimit, redisClient)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(rateLimiter), middleware.PosthogMiddleware(posthogClient))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	// Stop waits for an in-flight release to finish; releases are not cancellable.
	if worker != nil {
		worker.Stop()
	}
}

// setupStore opens the configured escrow store and returns a cleanup func.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory escrow store")
		return memory.NewRepositoryProvider(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}

	return pgsql.NewRepositoryProvider(dbPool), dbPool.Close, nil
}

// runMigrations applies all pending "up" migrations through a database/sql handle.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return upErr
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func setupAutoReleaseWorker(
	cfg *config.Config,
	container *portssvc.ServiceContainer,
	redisClient *redis.Client,
	events portssvc.EventPublisher,
	logger *slog.Logger,
) *services.AutoReleaseWorker {
	if !cfg.AutoReleaseEnabled {
		logger.Info("Auto-release worker disabled")
		return nil
	}

	opts := []services.WorkerOption{services.WithWorkerEvents(events)}
	if redisClient != nil {
		opts = append(opts, services.WithSweepLocker(redislock.NewLocker(redisClient), cfg.SweepLockTTL))
	}
	return services.NewAutoReleaseWorker(container.Escrow, cfg.AutoReleaseInterval, cfg.AutoReleaseAfter, logger, opts...)
}
