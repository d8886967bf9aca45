package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oksasatya/identity-service/internal/domain/entity"
)

// UpdateUserInput is a partial update: nil fields are left untouched and any
// other value overwrites the stored one. An empty phone number or image URL
// clears the field.
type UpdateUserInput struct {
	ID              string     `json:"id"`
	FirstName       *string    `json:"first_name"`
	LastName        *string    `json:"last_name"`
	PhoneNumber     *string    `json:"phone_number"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	ProfileImageURL *string    `json:"profile_image_url"`
}

type UpdateUserProfileInput struct {
	ID          string     `json:"id"`
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	PhoneNumber *string    `json:"phone_number"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

type UpdateUserStatusInput struct {
	ID     string `json:"id" validate:"required,notblank"`
	Status string `json:"status" validate:"required,notblank"`
}

type UpdateUserPasswordInput struct {
	ID              string `json:"id" validate:"required,notblank"`
	CurrentPassword string `json:"current_password" validate:"required,notblank"`
	NewPassword     string `json:"new_password" validate:"required,notblank"`
}

func (s *Service) UpdateUser(ctx context.Context, in UpdateUserInput) (*entity.User, error) {
	if err := requireValue("id", in.ID); err != nil {
		return nil, err
	}
	u, err := s.modify(ctx, in.ID, func(u *entity.User, _ time.Time) error {
		applyProfile(u, in.FirstName, in.LastName, in.PhoneNumber, in.DateOfBirth)
		if in.ProfileImageURL != nil {
			u.ProfileImageURL = optional(*in.ProfileImageURL)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterUpdate(ctx, u)
	return u, nil
}

func (s *Service) UpdateUserProfile(ctx context.Context, in UpdateUserProfileInput) (*entity.User, error) {
	if err := requireValue("id", in.ID); err != nil {
		return nil, err
	}
	u, err := s.modify(ctx, in.ID, func(u *entity.User, _ time.Time) error {
		applyProfile(u, in.FirstName, in.LastName, in.PhoneNumber, in.DateOfBirth)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterUpdate(ctx, u)
	return u, nil
}

// UpdateUserStatus allows any known status to follow any other. Moving to
// ACTIVE clears the failed login counter.
func (s *Service) UpdateUserStatus(ctx context.Context, in UpdateUserStatusInput) (*entity.User, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	status, err := entity.ParseAccountStatus(in.Status)
	if err != nil {
		return nil, invalidField("status", "must be one of the known account statuses")
	}

	var previous entity.AccountStatus
	u, err := s.modify(ctx, in.ID, func(u *entity.User, _ time.Time) error {
		previous = u.AccountStatus
		u.AccountStatus = status
		if status == entity.StatusActive {
			u.ResetFailedLoginAttempts()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterUpdate(ctx, u)
	if previous != status {
		s.Logger.WithFields(map[string]any{"user_id": u.ID, "from": previous, "to": status}).Info("account status changed")
		s.notifyStatusChanged(ctx, u, previous)
	}
	return u, nil
}

// UpdateUserPassword rotates the credential after checking the current one.
func (s *Service) UpdateUserPassword(ctx context.Context, in UpdateUserPasswordInput) (*entity.User, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.modify(ctx, in.ID, func(u *entity.User, now time.Time) error {
		if !s.Hasher.Verify(in.CurrentPassword, u.PasswordHash) {
			return ErrInvalidCredentials
		}
		digest, err := s.Hasher.Hash(in.NewPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = digest
		changed := now
		u.PasswordChangedAt = &changed
		u.ResetFailedLoginAttempts()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithField("user_id", u.ID).Info("password changed")
	s.afterUpdate(ctx, u)
	s.notifyPasswordChanged(ctx, u)
	return u, nil
}

// UploadProfileImage stores the image and points the profile at its URL.
func (s *Service) UploadProfileImage(ctx context.Context, id string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if err := requireValue("id", id); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, invalidField("file", "is required")
	}
	if s.Images == nil {
		return nil, ErrImagesUnavailable
	}
	current, err := s.findOne(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	url, err := s.Images.Upload(ctx, id, r, filename, contentType)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Error("profile image upload failed")
		return nil, fmt.Errorf("upload profile image: %w", err)
	}
	u, err := s.UpdateUser(ctx, UpdateUserInput{ID: id, ProfileImageURL: &url})
	if err != nil {
		s.removeImage(ctx, id, url)
		return nil, err
	}
	if current.ProfileImageURL != nil && *current.ProfileImageURL != url {
		s.removeImage(ctx, id, *current.ProfileImageURL)
	}
	return u, nil
}

// modify loads the user, applies fn and saves inside one transaction.
// fn receives the operation timestamp so every stamp agrees.
func (s *Service) modify(ctx context.Context, id string, fn func(u *entity.User, now time.Time) error) (*entity.User, error) {
	actor := ActorFromContext(ctx)
	var saved *entity.User
	err := s.inTx(ctx, func(ctx context.Context) error {
		u, err := s.Repo.FindByID(ctx, id)
		if err != nil {
			return mapRepoError(err)
		}
		now := s.now()
		if err := fn(u, now); err != nil {
			return err
		}
		u.Touch(now, actor)
		out, err := s.Repo.Save(ctx, u)
		if err != nil {
			return mapRepoError(err)
		}
		saved = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func applyProfile(u *entity.User, first, last, phone *string, dob *time.Time) {
	if first != nil {
		u.FirstName = *first
	}
	if last != nil {
		u.LastName = *last
	}
	if phone != nil {
		u.PhoneNumber = optional(*phone)
	}
	if dob != nil {
		d := time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
		u.DateOfBirth = &d
	}
}

// optional maps the empty string to nil.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
