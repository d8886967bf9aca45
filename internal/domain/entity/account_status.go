package entity

import (
	"fmt"
	"strings"
)

// AccountStatus is the lifecycle marker of an account.
type AccountStatus string

const (
	StatusActive              AccountStatus = "ACTIVE"
	StatusInactive            AccountStatus = "INACTIVE"
	StatusPendingVerification AccountStatus = "PENDING_VERIFICATION"
	StatusSuspended           AccountStatus = "SUSPENDED"
	StatusLocked              AccountStatus = "LOCKED"
)

// AccountStatuses lists every known status in declaration order.
var AccountStatuses = []AccountStatus{
	StatusActive,
	StatusInactive,
	StatusPendingVerification,
	StatusSuspended,
	StatusLocked,
}

func (s AccountStatus) String() string { return string(s) }

func (s AccountStatus) Valid() bool {
	for _, known := range AccountStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseAccountStatus accepts any casing and surrounding whitespace.
func ParseAccountStatus(v string) (AccountStatus, error) {
	s := AccountStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown account status %q", v)
	}
	return s, nil
}
