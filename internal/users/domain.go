package users

import (
	"errors"
	"time"
)

// User is the public account profile. Password material stays in the auth
// module and never leaves this shape.
type User struct {
	ID        int64
	Name      string
	Username  string
	CreatedAt time.Time
}

var ErrNotFound = errors.New("users: user not found")
