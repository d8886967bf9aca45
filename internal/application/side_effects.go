package application

import (
	"context"

	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/pkg/mailer"
	"github.com/oksasatya/identity-service/pkg/mailer/templates"
)

// Everything here runs after commit. Failures are logged, never returned.

func (s *Service) afterCreate(ctx context.Context, u *entity.User) {
	s.index(ctx, u)
	s.enqueue(ctx, u.ID, mailer.NewTemplateJob(u.Email, templates.Welcome,
		templates.NewWelcomeData(fullName(u), u.Username, u.Email)))
}

func (s *Service) afterUpdate(ctx context.Context, u *entity.User) {
	s.invalidate(ctx, u.ID)
	s.index(ctx, u)
}

func (s *Service) afterDelete(ctx context.Context, id string) {
	s.invalidate(ctx, id)
	if s.Index == nil {
		return
	}
	if err := s.Index.Remove(ctx, id); err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("search index removal failed")
	}
}

func (s *Service) notifyPasswordChanged(ctx context.Context, u *entity.User) {
	changedAt := u.UpdatedAt
	if u.PasswordChangedAt != nil {
		changedAt = *u.PasswordChangedAt
	}
	s.enqueue(ctx, u.ID, mailer.NewTemplateJob(u.Email, templates.PasswordChanged,
		templates.NewPasswordChangedData(fullName(u), u.Username, u.Email, changedAt)))
}

func (s *Service) notifyStatusChanged(ctx context.Context, u *entity.User, previous entity.AccountStatus) {
	s.enqueue(ctx, u.ID, mailer.NewTemplateJob(u.Email, templates.AccountStatusChanged,
		templates.NewAccountStatusChangedData(fullName(u), u.Username, u.Email,
			previous.String(), u.AccountStatus.String(), u.UpdatedAt)))
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("user cache invalidation failed")
	}
}

func (s *Service) index(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("search indexing failed")
	}
}

func (s *Service) enqueue(ctx context.Context, userID string, job mailer.EmailJob) {
	if s.Jobs == nil {
		return
	}
	if err := s.Jobs.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithFields(map[string]any{"user_id": userID, "template": job.Template}).Warn("email job publish failed")
	}
}

func fullName(u *entity.User) string {
	return u.FirstName + " " + u.LastName
}

func (s *Service) removeImage(ctx context.Context, userID, url string) {
	if s.Images == nil || url == "" {
		return
	}
	if err := s.Images.Remove(ctx, url); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("profile image cleanup failed")
	}
}
