package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserNotFound is returned when no user row matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the email fingerprint already exists.
	ErrEmailTaken = errors.New("email fingerprint already registered")
	// ErrTicketNotFound is returned when no ticket matches for the owner.
	ErrTicketNotFound = errors.New("ticket not found")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
