package entity

import (
	"time"
)

// User is the aggregate root for the identity domain.
// PasswordHash only ever holds a digest produced by the configured hasher.
type User struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	PhoneNumber         *string
	DateOfBirth         *time.Time
	ProfileImageURL     *string
	EmailVerified       bool
	PhoneVerified       bool
	AccountStatus       AccountStatus
	FailedLoginAttempts int
	LastLoginAt         *time.Time
	PasswordChangedAt   *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CreatedBy           string
	UpdatedBy           string
}

// NewUser builds an account in its initial state. Both timestamps share the same instant.
func NewUser(username, email, passwordHash, firstName, lastName string, now time.Time) *User {
	return &User{
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		FirstName:     firstName,
		LastName:      lastName,
		AccountStatus: StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ResetFailedLoginAttempts marks authentication state as fresh.
func (u *User) ResetFailedLoginAttempts() {
	u.FailedLoginAttempts = 0
}

func (u *User) IsActive() bool {
	return u.AccountStatus == StatusActive
}

// Touch refreshes the mutation audit fields.
func (u *User) Touch(now time.Time, actor string) {
	u.UpdatedAt = now
	if actor != "" {
		u.UpdatedBy = actor
	}
}

// Clone returns a deep copy so callers can't alias stored state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PhoneNumber = cloneString(u.PhoneNumber)
	c.ProfileImageURL = cloneString(u.ProfileImageURL)
	c.DateOfBirth = cloneTime(u.DateOfBirth)
	c.LastLoginAt = cloneTime(u.LastLoginAt)
	c.PasswordChangedAt = cloneTime(u.PasswordChangedAt)
	return &c
}

// Now returns the current instant at the precision postgres stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
