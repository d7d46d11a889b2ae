package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapCreateErrorDuplicateUsername(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
	require.ErrorIs(t, mapCreateError(err), ErrDuplicateUsername)
}

func TestMapCreateErrorWrapsOtherErrors(t *testing.T) {
	cause := errors.New("connection reset")
	mapped := mapCreateError(cause)
	require.ErrorIs(t, mapped, cause)
	require.NotErrorIs(t, mapped, ErrDuplicateUsername)
}
