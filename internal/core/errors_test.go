package core

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDBErr(t *testing.T) {
	err := dbErr("get tenant t1", pgx.ErrNoRows)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "get tenant t1: not found", err.Error())

	err = dbErr("create tenant", &pgconn.PgError{Code: "23505", Detail: "Key (slug)=(acme) already exists."})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "slug")

	err = dbErr("delete plan", &pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, err, ErrConflict)

	boom := errors.New("connection reset")
	err = dbErr("list tenants", boom)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCooldownError(t *testing.T) {
	err := error(&CooldownError{RetryAfterSeconds: 42})
	assert.ErrorIs(t, err, ErrCooldown)
	assert.Contains(t, err.Error(), "42s")
}

func TestInvalid(t *testing.T) {
	err := invalid("slug %q is not valid", "A")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, `invalid input: slug "A" is not valid`, err.Error())
}
