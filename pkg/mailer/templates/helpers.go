package templates

import (
	"time"
)

type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04 MST") }
}

func WithStatusChange(previous, current string) Option {
	return func(d *EmailData) {
		d.PreviousStatus = previous
		d.Status = current
	}
}

// NewBaseEmailData fills the recipient fields and applies opts. App-level
// fields are left for the worker to fill.
func NewBaseEmailData(typ, name, username, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:     name,
		Username: username,
		Email:    email,
		Type:     typ,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(name, username, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(Welcome, name, username, email, opts...))
}

func NewPasswordChangedData(name, username, email string, changedAt time.Time) map[string]any {
	return ToMap(NewBaseEmailData(PasswordChanged, name, username, email, WithTime(changedAt)))
}

func NewAccountStatusChangedData(name, username, email, previous, current string, at time.Time) map[string]any {
	return ToMap(NewBaseEmailData(AccountStatusChanged, name, username, email,
		WithStatusChange(previous, current), WithTime(at)))
}
