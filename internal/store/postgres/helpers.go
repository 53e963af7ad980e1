package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// nullIfEmpty maps empty strings to SQL NULL for nullable uuid columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
