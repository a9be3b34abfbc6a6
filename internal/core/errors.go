package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrCooldown          = errors.New("please wait before requesting a new code")
	ErrTooManyAttempts   = errors.New("too many attempts")
)

// CooldownError carries how long a caller must wait before retrying.
type CooldownError struct {
	RetryAfterSeconds int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (%ds)", ErrCooldown.Error(), e.RetryAfterSeconds)
}

func (e *CooldownError) Unwrap() error { return ErrCooldown }

// dbErr wraps err with context, mapping missing rows to ErrNotFound and
// unique or foreign key violations to ErrConflict.
func dbErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w: %s", op, ErrConflict, pgErr.Detail)
		case "23503":
			return fmt.Errorf("%s: %w: referenced record missing or in use", op, ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
