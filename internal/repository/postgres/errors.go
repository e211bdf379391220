package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sharedrive/internal/domain"
)

// pgUniqueViolation is SQLSTATE unique_violation
const pgUniqueViolation = "23505"

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// recordError maps driver errors on a single record to domain errors.
// kind and id name the record, op the failed operation.
func recordError(err error, kind, id, op string) error {
	switch {
	case IsPgDuplicateError(err):
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrConflict)
	case IsPgNoRowsError(err):
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	default:
		return fmt.Errorf("%s %s: %w", op, kind, err)
	}
}
