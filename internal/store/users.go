package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"goblog/internal/models"
)

const userColumns = "id, username, email, password_hash"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. The existence checks and the insert share one
// transaction; the UNIQUE constraints catch anything that slips past them.
// Username is checked before email.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkUnique(ctx, tx, 0, username, email); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx,
			s.rebind("INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?) RETURNING id"),
			username, email, passwordHash).Scan(&id)
		return uniqueViolation(err)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return &models.User{ID: id, Username: username, Email: email, PasswordHash: passwordHash}, nil
}

// UpdateUser changes username and email of user id in a single statement.
// Values held by the same user do not count as taken.
func (s *Store) UpdateUser(ctx context.Context, id int64, username, email string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkUnique(ctx, tx, id, username, email); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			s.rebind("UPDATE users SET username = ?, email = ? WHERE id = ?"),
			username, email, id)
		if err != nil {
			return uniqueViolation(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	return errors.Wrapf(err, "update user %d", id)
}

// checkUnique fails with ErrUsernameTaken or ErrEmailTaken when another
// user (id != self) holds either value.
func (s *Store) checkUnique(ctx context.Context, tx *sql.Tx, self int64, username, email string) error {
	var owner int64
	err := tx.QueryRowContext(ctx, s.rebind("SELECT id FROM users WHERE username = ?"), username).Scan(&owner)
	if err == nil && owner != self {
		return ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	err = tx.QueryRowContext(ctx, s.rebind("SELECT id FROM users WHERE email = ?"), email).Scan(&owner)
	if err == nil && owner != self {
		return ErrEmailTaken
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+userColumns+" FROM users WHERE username = ?"), username))
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
