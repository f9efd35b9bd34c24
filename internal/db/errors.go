package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Violation classifies integrity errors raised by Postgres.
type Violation int

const (
	NoViolation Violation = iota
	UniqueViolation
	ForeignKeyViolation
	CheckViolation
)

// SQLSTATE codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

func Classify(err error) Violation {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return NoViolation
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return UniqueViolation
	case codeForeignKeyViolation:
		return ForeignKeyViolation
	case codeCheckViolation:
		return CheckViolation
	}
	return NoViolation
}

// ConstraintName returns the violated constraint, if any.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
