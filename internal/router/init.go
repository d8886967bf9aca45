package router

import (
	"context"
	"fmt"
	"time"

	"github.com/oksasatya/identity-service/config"
	userapp "github.com/oksasatya/identity-service/internal/application"
	"github.com/oksasatya/identity-service/internal/container"
	repo "github.com/oksasatya/identity-service/internal/domain/repository"
	"github.com/oksasatya/identity-service/internal/infrastructure/cache"
	"github.com/oksasatya/identity-service/internal/infrastructure/gormstore"
	"github.com/oksasatya/identity-service/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/identity-service/internal/infrastructure/postgres"
	"github.com/oksasatya/identity-service/internal/infrastructure/search"
	"github.com/oksasatya/identity-service/internal/infrastructure/storage"
	handlers "github.com/oksasatya/identity-service/internal/interface/http"
	"github.com/oksasatya/identity-service/internal/router/modules"
	"github.com/oksasatya/identity-service/pkg/helpers"
)

type UserModuleDeps struct {
	Repo    repo.UserRepository
	Service *userapp.Service
	Handler *handlers.UserHandler
}

// buildStore picks the repository and its transaction manager for the configured driver.
func buildStore(cfg *config.Config) (repo.UserRepository, repo.Transactor, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		r := memory.NewUserRepository()
		return r, r, nil
	case config.StorageDriverGorm:
		db := container.GetGormDB()
		if db == nil {
			return nil, nil, fmt.Errorf("gorm storage selected but no database is connected")
		}
		return gormstore.NewUserRepository(db), gormstore.NewTxManager(db), nil
	default:
		pool := container.GetPGPool()
		if pool == nil {
			return nil, nil, fmt.Errorf("pgx storage selected but no pool is connected")
		}
		return pginfra.NewUserRepository(pool), pginfra.NewTxManager(pool), nil
	}
}

func buildUserDeps() (UserModuleDeps, error) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	store, tx, err := buildStore(cfg)
	if err != nil {
		return UserModuleDeps{}, err
	}
	hasher, err := helpers.NewPasswordHasher(cfg.PasswordHashAlgorithm, cfg.BcryptCost, cfg.Argon2Time, cfg.Argon2MemoryKiB, cfg.Argon2Threads)
	if err != nil {
		return UserModuleDeps{}, err
	}

	service := userapp.NewService(store, tx, hasher, logger)
	// Optional integrations are assigned only when present so the service sees a nil interface.
	if rdb := container.GetRedis(); rdb != nil && cfg.UserCacheTTL > 0 {
		service.Cache = cache.NewUserCache(rdb, cfg.UserCacheTTL)
	}
	if es := container.GetES(); es != nil {
		index := search.NewUserIndex(es, cfg.ESUsersIndex)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := index.EnsureIndex(ctx); err != nil {
			logger.WithError(err).Warn("users index not ready; search may fail until it exists")
		}
		cancel()
		service.Index = index
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		service.Images = storage.NewImageStore(gcs, cfg.GCSBucket)
	}
	if pub := container.GetRabbitPub(); pub != nil {
		service.Jobs = pub
	}

	return UserModuleDeps{
		Repo:    store,
		Service: service,
		Handler: handlers.NewUserHandler(service, logger),
	}, nil
}

// InitModules builds every feature module from the container and adds it to the registry.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) error {
	cfg := container.GetConfig()
	userDeps, err := buildUserDeps()
	if err != nil {
		return err
	}
	r.Add(modules.NewUserModule(userDeps.Handler, container.GetRedis(), cfg.RateLimitRead, cfg.RateLimitWrite, cfg.RateLimitWindow))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis(), cfg.StorageDriver))
	}
	return nil
}
