package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "profiles_referral_code_key"}
	wrapped := fmt.Errorf("insert profile: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(wrapped, "profiles_referral_code_key") {
		t.Fatal("expected constraint match")
	}
	if IsUniqueViolation(wrapped, "identities_email_key") {
		t.Fatal("expected constraint mismatch")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("plain error is not a unique violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: identities.email"), "") {
		t.Fatal("expected sqlite unique message to match")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: identities.email"), "identities_email_key") {
		t.Fatal("expected sqlite column to map to the postgres constraint name")
	}
	if IsUniqueViolation(errors.New("UNIQUE constraint failed: profiles.referral_code"), "identities_email_key") {
		t.Fatal("expected sqlite constraint mismatch")
	}
}

func TestIsCheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "profiles_wallet_balance_non_negative"}
	if !IsCheckViolation(pgErr, "profiles_wallet_balance_non_negative") {
		t.Fatal("expected check violation")
	}
	if IsCheckViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}, "") {
		t.Fatal("unique violation is not a check violation")
	}
	if IsCheckViolation(nil, "") {
		t.Fatal("nil is not a violation")
	}
}
