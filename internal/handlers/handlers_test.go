package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKey(t *testing.T) {
	// pgx surfaces unique violations with the Postgres message text
	pgErr := errors.New(`ERROR: duplicate key value violates unique constraint "customers_email_key" (SQLSTATE 23505)`)
	assert.True(t, isDuplicateKey(pgErr))

	assert.False(t, isDuplicateKey(nil))
	assert.False(t, isDuplicateKey(errors.New("connection refused")))
}
