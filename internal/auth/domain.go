package auth

import (
	"errors"
	"time"
)

// Credential stores the login secret for an account. Profile data lives in
// the profiles package; this row only exists for authentication.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrEmailTaken indicates a signup against an already registered email.
var ErrEmailTaken = errors.New("email already registered")

// ErrAccountDisabled indicates a login against a suspended or deactivated
// account. Pending accounts may still sign in to finish onboarding.
var ErrAccountDisabled = errors.New("account disabled")
