package serviceerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the bridge classifies. The codes are an external
// contract shared with the hosted backend and must be matched verbatim.
//
//	42P01  undefined_table   -> schema missing
//	42703  undefined_column  -> schema missing (older table shapes)
//	23505  unique_violation  -> conflict (username already taken)
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
	pgUniqueViolation = "23505"
)

// IsUndefinedRelation reports whether err is the store telling us the backing
// table or column has not been created yet.
func IsUndefinedRelation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUndefinedTable || pgErr.Code == pgUndefinedColumn
}

// IsUniqueViolation reports whether err is a uniqueness conflict.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation
}
