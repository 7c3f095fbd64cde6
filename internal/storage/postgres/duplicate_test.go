package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestIsDuplicateKeyError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	assert.True(t, isDuplicateKeyError(dup))
	assert.True(t, isDuplicateKeyError(fmt.Errorf("wrapped: %w", dup)))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKeyError(errors.New("plain")))
	assert.False(t, isDuplicateKeyError(nil))
}

// Property: only SQLSTATE 23505 is a duplicate key.
func TestPropertyDuplicateKeyCode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.StringMatching(`[0-9A-Z]{5}`).Draw(t, "code")
		got := isDuplicateKeyError(&pgconn.PgError{Code: code})
		if got != (code == "23505") {
			t.Fatalf("isDuplicateKeyError(%q) = %v", code, got)
		}
	})
}
