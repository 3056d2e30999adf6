package store

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

const pgUniqueViolation = "23505"

// uniqueViolation maps a constraint failure on users.username or
// users.email to the matching sentinel. Other errors pass through.
func uniqueViolation(err error) error {
	var column string

	var sqliteErr sqlite3.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		// "UNIQUE constraint failed: users.username"
		column = sqliteErr.Error()
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		// users_username_key
		column = pgErr.ConstraintName
	default:
		return err
	}

	switch {
	case strings.Contains(column, "username"):
		return ErrUsernameTaken
	case strings.Contains(column, "email"):
		return ErrEmailTaken
	}
	return err
}
