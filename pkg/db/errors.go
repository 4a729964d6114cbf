package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err is a unique violation. When
// constraintName is set the violation must reference that constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgerrcode.UniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName) || sqliteUniqueKey(msg) == constraintName
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, sqliteUniquePrefix)
}

const sqliteUniquePrefix = "UNIQUE constraint failed: "

// sqliteUniqueKey maps "UNIQUE constraint failed: t.col" to the Postgres
// default constraint name t_col_key. Composite keys yield "".
func sqliteUniqueKey(msg string) string {
	idx := strings.Index(msg, sqliteUniquePrefix)
	if idx < 0 {
		return ""
	}
	target := strings.TrimSpace(msg[idx+len(sqliteUniquePrefix):])
	if strings.Contains(target, ",") {
		return ""
	}
	table, column, ok := strings.Cut(target, ".")
	if !ok {
		return ""
	}
	return table + "_" + column + "_key"
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgerrcode.CheckViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "violates check constraint") || strings.Contains(msg, "CHECK constraint failed")
}
