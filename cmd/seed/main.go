package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/config"
	"github.com/spec-kit/sweet-shop/internal/observability"
	"github.com/spec-kit/sweet-shop/internal/persistence"
	"github.com/spec-kit/sweet-shop/internal/repository"
	"github.com/spec-kit/sweet-shop/internal/seed"
)

func main() {
	var (
		adminEmail    = flag.String("admin-email", seed.DefaultAdmin.Email, "email of the admin account to create or promote")
		adminPassword = flag.String("admin-password", seed.DefaultAdmin.Password, "password used when the admin account is created")
		adminName     = flag.String("admin-name", seed.DefaultAdmin.Name, "display name used when the admin account is created")
		withSweets    = flag.Bool("sweets", true, "insert the sample catalog when it is empty")
	)
	flag.Parse()

	ctx := context.Background()

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
	if !pg.Enabled() {
		logger.Fatal("seeding requires POSTGRES_DSN")
	}

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	seeder := seed.New(
		repository.NewUserRepository(pg.PoolHandle()),
		repository.NewSweetRepository(pg.PoolHandle()),
		cfg.Auth.BcryptCost,
		logger,
	)

	if _, err := seeder.EnsureAdmin(ctx, seed.AdminAccount{
		Name:     *adminName,
		Email:    *adminEmail,
		Password: *adminPassword,
	}); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}

	if *withSweets {
		if _, err := seeder.Sweets(ctx); err != nil {
			logger.Fatal("failed to seed sweets", zap.Error(err))
		}
	}
}
