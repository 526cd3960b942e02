package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the Postgres error class for unique constraint breaks.
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation. A
// typed Postgres error is matched on its SQLSTATE code and, when
// constraintName is provided, the violated constraint. Drivers that surface
// plain errors (sqlite names the column list, not the index) fall back to the
// generic duplicate-key markers.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		(constraintName != "" && strings.Contains(msg, constraintName))
}
