package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/identity-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned by lookups and by conditional writes that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken and ErrEmailTaken report storage-level unique violations.
	ErrUsernameTaken = errors.New("username taken")
	ErrEmailTaken    = errors.New("email taken")
)

// UserRepository defines the persistence operations for user accounts.
// Substring searches are case-insensitive.
type UserRepository interface {
	// Save inserts when u.ID is empty (assigning the id) and updates otherwise.
	Save(ctx context.Context, u *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context) ([]*entity.User, error)
	FindByStatus(ctx context.Context, status entity.AccountStatus) ([]*entity.User, error)
	FindByFirstNameContaining(ctx context.Context, term string) ([]*entity.User, error)
	FindByLastNameContaining(ctx context.Context, term string) ([]*entity.User, error)
	FindByEmailContaining(ctx context.Context, term string) ([]*entity.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
	DeleteByID(ctx context.Context, id string) error
	Delete(ctx context.Context, u *entity.User) error
}
