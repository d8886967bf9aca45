package application_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/identity-service/internal/application"
	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/pkg/mailer"
	"github.com/oksasatya/identity-service/pkg/mailer/templates"
)

func TestUpdateUserPartialIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	in := application.UpdateUserInput{ID: u.ID, FirstName: strPtr("Alicia"), PhoneNumber: strPtr("+15550100")}
	once, err := f.svc.UpdateUser(ctx, in)
	require.NoError(t, err)
	twice, err := f.svc.UpdateUser(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "Alicia", twice.FirstName)
	assert.Equal(t, "Lee", twice.LastName)
	assert.Equal(t, u.Email, twice.Email)
	assert.Equal(t, u.PasswordHash, twice.PasswordHash)
	assert.Equal(t, u.CreatedAt, twice.CreatedAt)
	assert.True(t, once.UpdatedAt.After(u.UpdatedAt))
	assert.True(t, twice.UpdatedAt.After(once.UpdatedAt))

	once.UpdatedAt = twice.UpdatedAt
	assert.Equal(t, once, twice)
}

func TestUpdateUserFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	dob := time.Date(1990, 4, 1, 15, 30, 0, 0, time.FixedZone("X", 3600))
	got, err := f.svc.UpdateUser(ctx, application.UpdateUserInput{
		ID:              u.ID,
		LastName:        strPtr("Smith"),
		PhoneNumber:     strPtr("+15550100"),
		DateOfBirth:     &dob,
		ProfileImageURL: strPtr("https://img/a.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "Smith", got.LastName)
	assert.Equal(t, "+15550100", *got.PhoneNumber)
	assert.Equal(t, time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC), *got.DateOfBirth)
	assert.Equal(t, "https://img/a.png", *got.ProfileImageURL)

	cleared, err := f.svc.UpdateUser(ctx, application.UpdateUserInput{ID: u.ID, PhoneNumber: strPtr(""), ProfileImageURL: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.PhoneNumber)
	assert.Nil(t, cleared.ProfileImageURL)
	assert.NotNil(t, cleared.DateOfBirth)
}

func TestUpdateUserProfileLeavesImageAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")
	_, err := f.svc.UpdateUser(ctx, application.UpdateUserInput{ID: u.ID, ProfileImageURL: strPtr("https://img/a.png")})
	require.NoError(t, err)

	got, err := f.svc.UpdateUserProfile(ctx, application.UpdateUserProfileInput{ID: u.ID, FirstName: strPtr("Al")})
	require.NoError(t, err)
	assert.Equal(t, "Al", got.FirstName)
	assert.Equal(t, "https://img/a.png", *got.ProfileImageURL)
}

func TestUpdateUserRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	_, err := f.svc.UpdateUser(ctx, application.UpdateUserInput{FirstName: strPtr("x")})
	assert.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = f.svc.UpdateUser(ctx, application.UpdateUserInput{ID: "missing", FirstName: strPtr("x")})
	assert.ErrorIs(t, err, application.ErrUserNotFound)
	_, err = f.svc.UpdateUserProfile(ctx, application.UpdateUserProfileInput{ID: "missing"})
	assert.ErrorIs(t, err, application.ErrUserNotFound)

	stored, err := f.svc.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, stored)
}

func TestUpdateUserStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	jobs := &mockJobs{}
	f.svc.Jobs = jobs
	statusJob := func(from, to string) interface{} {
		return mock.MatchedBy(func(j mailer.EmailJob) bool {
			return j.Template == templates.AccountStatusChanged &&
				j.Data["PreviousStatus"] == from && j.Data["Status"] == to
		})
	}
	jobs.On("PublishJSON", statusJob("ACTIVE", "LOCKED")).Return(nil).Once()
	jobs.On("PublishJSON", statusJob("LOCKED", "ACTIVE")).Return(nil).Once()

	// seed a non-zero counter straight through storage
	raw, err := f.repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	raw.FailedLoginAttempts = 3
	_, err = f.repo.Save(ctx, raw)
	require.NoError(t, err)

	locked, err := f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{ID: u.ID, Status: "LOCKED"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusLocked, locked.AccountStatus)
	assert.Equal(t, 3, locked.FailedLoginAttempts)
	assert.True(t, locked.UpdatedAt.After(u.UpdatedAt))

	again, err := f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{ID: u.ID, Status: "locked"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusLocked, again.AccountStatus)

	active, err := f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{ID: u.ID, Status: "ACTIVE"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, active.AccountStatus)
	assert.Zero(t, active.FailedLoginAttempts)

	jobs.AssertExpectations(t)
}

func TestUpdateUserStatusAnyToAny(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	for _, from := range entity.AccountStatuses {
		for _, to := range entity.AccountStatuses {
			_, err := f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{ID: u.ID, Status: from.String()})
			require.NoError(t, err)
			got, err := f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{ID: u.ID, Status: to.String()})
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, got.AccountStatus)
		}
	}
}

func TestUpdateUserStatusRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	_, err := f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{ID: u.ID, Status: "DELETED"})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{ID: u.ID})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{Status: "ACTIVE"})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = f.svc.UpdateUserStatus(ctx, application.UpdateUserStatusInput{ID: "missing", Status: "ACTIVE"})
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}

func TestUpdateUserPasswordRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	raw, err := f.repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	raw.FailedLoginAttempts = 2
	before, err := f.repo.Save(ctx, raw)
	require.NoError(t, err)

	jobs := &mockJobs{}
	f.svc.Jobs = jobs
	jobs.On("PublishJSON", mock.MatchedBy(func(j mailer.EmailJob) bool {
		return j.Template == templates.PasswordChanged && j.To == "a@x.com"
	})).Return(nil).Once()

	_, err = f.svc.UpdateUserPassword(ctx, application.UpdateUserPasswordInput{ID: u.ID, CurrentPassword: "nope", NewPassword: "p2"})
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	unchanged, err := f.svc.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, before, unchanged)

	got, err := f.svc.UpdateUserPassword(ctx, application.UpdateUserPasswordInput{ID: u.ID, CurrentPassword: "p1", NewPassword: "p2"})
	require.NoError(t, err)
	assert.Equal(t, "hashed:p2", got.PasswordHash)
	assert.Zero(t, got.FailedLoginAttempts)
	require.NotNil(t, got.PasswordChangedAt)
	assert.Equal(t, got.UpdatedAt, *got.PasswordChangedAt)
	assert.True(t, got.UpdatedAt.After(before.UpdatedAt))
	jobs.AssertExpectations(t)
}

func TestUpdateUserPasswordRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	_, err := f.svc.UpdateUserPassword(ctx, application.UpdateUserPasswordInput{ID: u.ID, CurrentPassword: "p1", NewPassword: " "})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = f.svc.UpdateUserPassword(ctx, application.UpdateUserPasswordInput{CurrentPassword: "p1", NewPassword: "p2"})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = f.svc.UpdateUserPassword(ctx, application.UpdateUserPasswordInput{ID: "missing", CurrentPassword: "p1", NewPassword: "p2"})
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}

func TestUpdateInvalidatesCacheAndReindexes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	c := &mockCache{}
	idx := &mockIndex{}
	f.svc.Cache = c
	f.svc.Index = idx
	c.On("Invalidate", u.ID).Return(errors.New("redis down")).Once()
	idx.On("Index", mock.MatchedBy(func(x *entity.User) bool { return x.FirstName == "Al" })).Return(nil).Once()

	_, err := f.svc.UpdateUser(ctx, application.UpdateUserInput{ID: u.ID, FirstName: strPtr("Al")})
	require.NoError(t, err)
	c.AssertExpectations(t)
	idx.AssertExpectations(t)
}

func TestUploadProfileImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	_, err := f.svc.UploadProfileImage(ctx, u.ID, bytes.NewReader([]byte("png")), "me.png", "image/png")
	assert.ErrorIs(t, err, application.ErrImagesUnavailable)

	images := &mockImages{}
	f.svc.Images = images
	images.On("Upload", u.ID, "me.png", "image/png").Return("https://storage.googleapis.com/b/avatars/x.png", nil).Once()

	got, err := f.svc.UploadProfileImage(ctx, u.ID, bytes.NewReader([]byte("png")), "me.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/b/avatars/x.png", *got.ProfileImageURL)

	_, err = f.svc.UploadProfileImage(ctx, "missing", bytes.NewReader([]byte("png")), "me.png", "image/png")
	assert.ErrorIs(t, err, application.ErrUserNotFound)

	_, err = f.svc.UploadProfileImage(ctx, u.ID, nil, "me.png", "image/png")
	assert.ErrorIs(t, err, application.ErrInvalidInput)

	images.On("Upload", u.ID, "new.png", "image/png").Return("https://storage.googleapis.com/b/avatars/y.png", nil).Once()
	images.On("Remove", "https://storage.googleapis.com/b/avatars/x.png").Return(errors.New("gone")).Once()
	got, err = f.svc.UploadProfileImage(ctx, u.ID, bytes.NewReader([]byte("png")), "new.png", "image/png")
	require.NoError(t, err, "cleanup failures are not surfaced")
	assert.Equal(t, "https://storage.googleapis.com/b/avatars/y.png", *got.ProfileImageURL)

	images.On("Upload", u.ID, "big.png", "image/png").Return("", errors.New("quota")).Once()
	_, err = f.svc.UploadProfileImage(ctx, u.ID, bytes.NewReader([]byte("png")), "big.png", "image/png")
	assert.Error(t, err)

	images.AssertExpectations(t)
}

func TestUpdateUserOverwritesWithBlankNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	got, err := f.svc.UpdateUserProfile(ctx, application.UpdateUserProfileInput{ID: u.ID, FirstName: strPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, "  ", got.FirstName)
	assert.Equal(t, "Lee", got.LastName)

	got, err = f.svc.UpdateUser(ctx, application.UpdateUserInput{ID: u.ID, LastName: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "  ", got.FirstName)
	assert.Empty(t, got.LastName)
}

func TestUpdateUserPasswordRejectsBlankCurrentPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.create(t, "alice", "a@x.com", "Alice", "Lee")

	_, err := f.svc.UpdateUserPassword(ctx, application.UpdateUserPasswordInput{ID: u.ID, CurrentPassword: "   ", NewPassword: "p2"})
	require.ErrorIs(t, err, application.ErrInvalidInput)
	assert.NotErrorIs(t, err, application.ErrInvalidCredentials)
	var verr *application.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_password")
}
