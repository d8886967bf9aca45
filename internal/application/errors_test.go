package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/identity-service/internal/domain/repository"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"username": "is required", "email": "must be a valid email"}}
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid input: email must be a valid email; username is required", err.Error())

	wrapped := fmt.Errorf("create: %w", err)
	var verr *ValidationError
	assert.True(t, errors.As(wrapped, &verr))
	assert.ErrorIs(t, wrapped, ErrInvalidInput)
}

func TestMapRepoError(t *testing.T) {
	assert.NoError(t, mapRepoError(nil))
	assert.Equal(t, ErrUserNotFound, mapRepoError(fmt.Errorf("x: %w", repository.ErrNotFound)))
	assert.Equal(t, ErrDuplicateUsername, mapRepoError(repository.ErrUsernameTaken))
	assert.Equal(t, ErrDuplicateEmail, mapRepoError(repository.ErrEmailTaken))

	boom := errors.New("conn reset")
	err := mapRepoError(boom)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestActorFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, SystemActor, ActorFromContext(ctx))
	assert.Equal(t, SystemActor, ActorFromContext(WithActor(ctx, "")))
	assert.Equal(t, "admin", ActorFromContext(WithActor(ctx, "admin")))
}
