package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/oksasatya/identity-service/internal/domain/entity"
)

type CreateUserInput struct {
	Username    string  `json:"username" validate:"required,notblank"`
	Email       string  `json:"email" validate:"required,notblank"`
	Password    string  `json:"password" validate:"required,notblank"`
	FirstName   string  `json:"first_name" validate:"required,notblank"`
	LastName    string  `json:"last_name" validate:"required,notblank"`
	PhoneNumber *string `json:"phone_number"`
}

// CreateUser registers a new account. Username and email must be unused.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	actor := ActorFromContext(ctx)

	var created *entity.User
	err := s.inTx(ctx, func(ctx context.Context) error {
		taken, err := s.Repo.ExistsByUsername(ctx, in.Username)
		if err != nil {
			return mapRepoError(err)
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, in.Username)
		}
		taken, err = s.Repo.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return mapRepoError(err)
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
		}

		digest, err := s.Hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		u := entity.NewUser(in.Username, in.Email, digest, in.FirstName, in.LastName, s.now())
		u.CreatedBy = actor
		u.UpdatedBy = actor
		if in.PhoneNumber != nil && strings.TrimSpace(*in.PhoneNumber) != "" {
			phone := *in.PhoneNumber
			u.PhoneNumber = &phone
		}

		saved, err := s.Repo.Save(ctx, u)
		if err != nil {
			return mapRepoError(err)
		}
		created = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithField("user_id", created.ID).Info("user created")
	s.afterCreate(ctx, created)
	return created, nil
}
