package categories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapConstraintDuplicateName(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "categories_name_key"})
	require.ErrorIs(t, mapConstraint(err), ErrDuplicateName)
}

func TestMapConstraintPassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("connection reset")
	require.Equal(t, plain, mapConstraint(plain))

	fk := &pgconn.PgError{Code: "23503"}
	require.Equal(t, error(fk), mapConstraint(fk))
}
