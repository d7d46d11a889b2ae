package auth

import (
	"errors"
	"time"
)

// User represents an authenticated account.
type User struct {
	ID           int64
	Name         string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords
	// alike so responses never reveal which one failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrDuplicateUsername is returned when registering a taken username.
	ErrDuplicateUsername = errors.New("auth: username already taken")

	// ErrTokenInvalid is returned for malformed, forged, or expired tokens.
	ErrTokenInvalid = errors.New("auth: invalid or expired token")

	// ErrNotFound is returned when a user record does not exist.
	ErrNotFound = errors.New("auth: user not found")
)
