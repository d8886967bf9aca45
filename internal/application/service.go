package application

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/identity-service/internal/domain/entity"
	repo "github.com/oksasatya/identity-service/internal/domain/repository"
	"github.com/oksasatya/identity-service/pkg/validation"
)

// UserCache is a read-through cache for single-user lookups by id.
type UserCache interface {
	Get(ctx context.Context, id string) (*entity.User, bool, error)
	Set(ctx context.Context, u *entity.User) error
	Invalidate(ctx context.Context, id string) error
}

// UserIndexer mirrors accounts into the directory search backend.
type UserIndexer interface {
	Index(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// ImageStore keeps profile images. Remove ignores URLs it does not own.
type ImageStore interface {
	Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// JobPublisher enqueues background jobs such as notification emails.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Service orchestrates the identity use cases. Cache, Index, Images and Jobs
// are optional and may be left nil.
type Service struct {
	Repo   repo.UserRepository
	Tx     repo.Transactor
	Hasher PasswordHasher
	Cache  UserCache
	Index  UserIndexer
	Images ImageStore
	Jobs   JobPublisher
	Logger *logrus.Logger

	now      func() time.Time
	validate *validator.Validate
}

func NewService(repo repo.UserRepository, tx repo.Transactor, hasher PasswordHasher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		Repo:     repo,
		Tx:       tx,
		Hasher:   hasher,
		Logger:   logger,
		now:      entity.Now,
		validate: validation.New(),
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Tx.WithinTransaction(ctx, fn)
}

// inReadTx prefers a read-only transaction when the store offers one.
func (s *Service) inReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := s.Tx.(repo.ReadOnlyTransactor); ok {
		return ro.WithinReadOnlyTransaction(ctx, fn)
	}
	return s.Tx.WithinTransaction(ctx, fn)
}
