package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sweet-shop/internal/api/http"
	"github.com/spec-kit/sweet-shop/internal/api/http/handlers"
	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/config"
	"github.com/spec-kit/sweet-shop/internal/events"
	"github.com/spec-kit/sweet-shop/internal/observability"
	"github.com/spec-kit/sweet-shop/internal/persistence"
	"github.com/spec-kit/sweet-shop/internal/repository"
	"github.com/spec-kit/sweet-shop/internal/seed"
	"github.com/spec-kit/sweet-shop/internal/service"
	"github.com/spec-kit/sweet-shop/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		userRepo  repository.UserRepository
		sweetRepo repository.SweetRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.PoolHandle())
		sweetRepo = repository.NewSweetRepository(pg.PoolHandle())
	} else {
		userRepo = repository.NewMemoryUserRepository()
		sweetRepo = repository.NewMemorySweetRepository()
		seedMemoryStore(ctx, userRepo, sweetRepo, cfg.Auth.BcryptCost, logger)
	}

	var attempts auth.AttemptTracker = auth.NoopAttemptTracker{}
	if redis != nil {
		attempts = auth.NewRedisAttemptTracker(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartStockAlertWorker(service.NewStockAlertService(dispatcher, logger, metrics, cfg.Inventory))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: userRepo,
		Attempts: attempts,
		Logger:   logger,
	})
	inventoryService := service.NewInventoryService(sweetRepo, dispatcher, logger)

	app := httptransport.NewApp(cfg.App.Name,
		httptransport.MiddlewareConfig{
			Logger:    logger,
			Metrics:   metrics,
			Timeout:   cfg.App.RequestTimeout(),
			RateLimit: cfg.RateLimit,
			CORS:      cfg.CORS,
		},
		httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
			Auth:           handlers.NewAuthHandler(authService),
			Sweets:         handlers.NewSweetsHandler(inventoryService),
			AuthMiddleware: auth.NewAuthMiddleware(authService),
			Metrics:        metrics.Handler(),
		},
	)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// seedMemoryStore gives the in-memory store a development admin and the
// sample catalog so the API is usable without Postgres. Config validation
// keeps production off this path.
func seedMemoryStore(ctx context.Context, users repository.UserRepository, sweets repository.SweetRepository, bcryptCost int, logger *zap.Logger) {
	seeder := seed.New(users, sweets, bcryptCost, logger)
	if _, err := seeder.EnsureAdmin(ctx, seed.DefaultAdmin); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}
	if _, err := seeder.Sweets(ctx); err != nil {
		logger.Fatal("failed to seed sweets", zap.Error(err))
	}
	logger.Warn("in-memory store seeded with development admin", zap.String("email", seed.DefaultAdmin.Email))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
