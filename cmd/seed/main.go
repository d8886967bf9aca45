package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/identity-service/config"
	userapp "github.com/oksasatya/identity-service/internal/application"
	pginfra "github.com/oksasatya/identity-service/internal/infrastructure/postgres"
	"github.com/oksasatya/identity-service/pkg/helpers"
)

// seed inserts a demo account through the service so hashing and audit
// fields match what the API would produce. Re-running is a no-op.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
		AppName:         cfg.AppName + "-seed",
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	hasher, err := helpers.NewPasswordHasher(cfg.PasswordHashAlgorithm, cfg.BcryptCost, cfg.Argon2Time, cfg.Argon2MemoryKiB, cfg.Argon2Threads)
	if err != nil {
		logger.WithError(err).Fatal("failed to build password hasher")
	}
	svc := userapp.NewService(pginfra.NewUserRepository(pool), pginfra.NewTxManager(pool), hasher, logger)

	phone := "+6281234567890"
	in := userapp.CreateUserInput{
		Username:    "demoUser",
		Email:       "demo@example.com",
		Password:    "password123",
		FirstName:   "Demo",
		LastName:    "User",
		PhoneNumber: &phone,
	}
	u, err := svc.CreateUser(userapp.WithActor(ctx, "seed"), in)
	switch {
	case errors.Is(err, userapp.ErrDuplicateUsername), errors.Is(err, userapp.ErrDuplicateEmail):
		logger.WithField("username", in.Username).Info("demo user already present")
	case err != nil:
		logger.WithError(err).Fatal("failed to seed user")
	default:
		logger.WithField("id", u.ID).WithField("username", u.Username).Infof("seeded demo user; password=%s", in.Password)
	}
}
