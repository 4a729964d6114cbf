package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-only view of an error chain. It is never written to
// clients.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGViolation  string `json:"pg_violation,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	// Hint names the storefront invariant behind a known constraint.
	Hint string `json:"hint,omitempty"`
}

var constraintHints = map[string]string{
	"profiles_wallet_balance_non_negative": "wallet debit would overdraw the balance",
	"profiles_no_self_referral":            "profile referred by itself",
	"profiles_referral_code_key":           "referral code already taken",
	"identities_email_key":                 "email already registered",
	"wallet_transactions_amount_positive":  "ledger entry with non-positive amount",
	"orders_total_non_negative":            "order total below zero",
	"orders_discount_within_subtotal":      "discount larger than subtotal",
	"orders_pkey":                          "order id already used",
	"promo_codes_code_key":                 "promo code already exists",
	"site_settings_singleton":              "second site settings row",
}

var sqliteConstraintPrefixes = []string{"CHECK constraint failed: ", "UNIQUE constraint failed: "}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	default:
		d.PGConstraint = sqliteConstraint(err.Error())
	}

	d.PGViolation = violationName(d.PGCode)
	d.Hint = constraintHints[d.PGConstraint]
	return d
}

func violationName(code string) string {
	switch code {
	case "":
		return ""
	case pgerrcode.UniqueViolation:
		return "unique"
	case pgerrcode.CheckViolation:
		return "check"
	case pgerrcode.ForeignKeyViolation:
		return "foreign_key"
	case pgerrcode.NotNullViolation:
		return "not_null"
	case pgerrcode.InFailedSQLTransaction:
		return "aborted_transaction"
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return "concurrency"
	}
	return ""
}

// sqliteConstraint extracts the constraint name from sqlite messages. Only
// named CHECK constraints resolve; UNIQUE failures report columns.
func sqliteConstraint(msg string) string {
	for _, prefix := range sqliteConstraintPrefixes {
		idx := strings.Index(msg, prefix)
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(msg[idx+len(prefix):])
		if _, known := constraintHints[name]; known {
			return name
		}
	}
	return ""
}
