package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsDuplicateKeyError(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolation})
	if !isDuplicateKeyError(dup) {
		t.Fatal("wrapped unique violation not detected")
	}
	if isDuplicateKeyError(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation reported as duplicate")
	}
	if isDuplicateKeyError(errors.New("boom")) || isDuplicateKeyError(nil) {
		t.Fatal("non-postgres error reported as duplicate")
	}
}

func TestHasSetting(t *testing.T) {
	if !hasSetting("postgres://u@h/db?pool_max_conns=10", "pool_max_conns") {
		t.Fatal("url setting not found")
	}
	if !hasSetting("host=h dbname=db pool_max_conns=10", "pool_max_conns") {
		t.Fatal("keyword setting not found")
	}
	if hasSetting("postgres://u@h/db", "pool_max_conns") {
		t.Fatal("absent setting found")
	}
}
