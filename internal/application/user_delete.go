package application

import (
	"context"
	"time"

	"github.com/oksasatya/identity-service/internal/domain/entity"
)

// DeleteUser removes the account permanently.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := requireValue("id", id); err != nil {
		return err
	}
	err := s.inTx(ctx, func(ctx context.Context) error {
		return mapRepoError(s.Repo.DeleteByID(ctx, id))
	})
	if err != nil {
		return err
	}
	s.Logger.WithField("user_id", id).Info("user deleted")
	s.afterDelete(ctx, id)
	return nil
}

func (s *Service) DeleteUserByUsername(ctx context.Context, username string) error {
	if err := requireValue("username", username); err != nil {
		return err
	}
	return s.deleteLoaded(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByUsername(ctx, username)
	})
}

func (s *Service) DeleteUserByEmail(ctx context.Context, email string) error {
	if err := requireValue("email", email); err != nil {
		return err
	}
	return s.deleteLoaded(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByEmail(ctx, email)
	})
}

// deleteLoaded looks the account up and deletes that entity. If the row is
// gone by the time of the delete the caller sees ErrUserNotFound.
func (s *Service) deleteLoaded(ctx context.Context, find func(ctx context.Context) (*entity.User, error)) error {
	var id string
	err := s.inTx(ctx, func(ctx context.Context) error {
		u, err := find(ctx)
		if err != nil {
			return mapRepoError(err)
		}
		id = u.ID
		return mapRepoError(s.Repo.Delete(ctx, u))
	})
	if err != nil {
		return err
	}
	s.Logger.WithField("user_id", id).Info("user deleted")
	s.afterDelete(ctx, id)
	return nil
}

// SoftDeleteUser marks the account INACTIVE and keeps the record.
func (s *Service) SoftDeleteUser(ctx context.Context, id string) (*entity.User, error) {
	if err := requireValue("id", id); err != nil {
		return nil, err
	}
	u, err := s.modify(ctx, id, func(u *entity.User, _ time.Time) error {
		u.AccountStatus = entity.StatusInactive
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.WithField("user_id", id).Info("user soft deleted")
	s.afterUpdate(ctx, u)
	return u, nil
}
