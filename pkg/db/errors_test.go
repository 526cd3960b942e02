package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPostgres(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "ux_payouts_order_id"}

	if !IsUniqueViolation(dup, "ux_payouts_order_id") {
		t.Fatal("expected match on code and constraint name")
	}
	if !IsUniqueViolation(dup, "") {
		t.Fatal("expected match on code alone")
	}
	if IsUniqueViolation(dup, "ux_withdrawals_transfer_ref") {
		t.Fatal("must not match a different constraint")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "ux_payouts_order_id"}, "ux_payouts_order_id") {
		t.Fatal("must not match a non-unique violation code")
	}

	wrapped := fmt.Errorf("create payout: %w", dup)
	if !IsUniqueViolation(wrapped, "ux_payouts_order_id") {
		t.Fatal("expected match through wrapping")
	}
}

func TestIsUniqueViolationFallback(t *testing.T) {
	// sqlite reports the column list, never the index name.
	sqliteErr := errors.New("UNIQUE constraint failed: payouts.order_id")
	if !IsUniqueViolation(sqliteErr, "ux_payouts_order_id") {
		t.Fatal("expected sqlite duplicate to match despite constraint name")
	}

	textualPg := errors.New(`duplicate key value violates unique constraint "ux_payouts_order_id"`)
	if !IsUniqueViolation(textualPg, "ux_payouts_order_id") {
		t.Fatal("expected textual postgres duplicate to match")
	}

	if IsUniqueViolation(errors.New("connection refused"), "ux_payouts_order_id") {
		t.Fatal("unrelated error must not match")
	}
	if IsUniqueViolation(nil, "ux_payouts_order_id") {
		t.Fatal("nil error must not match")
	}
}
