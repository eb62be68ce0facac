package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// IsUniqueViolation reports whether err is a Postgres unique violation. When
// constraintName is provided the violated constraint must match it.
func IsUniqueViolation(err error, constraintName string) bool {
	return isViolation(err, pgUniqueViolation, "duplicate key value", constraintName)
}

// IsCheckViolation reports whether err is a Postgres CHECK constraint failure,
// e.g. rack occupancy exceeding capacity.
func IsCheckViolation(err error, constraintName string) bool {
	return isViolation(err, pgCheckViolation, "violates check constraint", constraintName)
}

func isViolation(err error, code, fallbackText, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != code {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, fallbackText)
}
