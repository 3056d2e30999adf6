// Package auth registers and authenticates users and binds them to
// browser sessions.
package auth

import (
	"context"

	"github.com/pkg/errors"

	"goblog/internal/forms"
	"goblog/internal/models"
	"goblog/internal/store"
)

// ErrInvalidCredentials covers both an unknown username and a wrong
// password.
var ErrInvalidCredentials = errors.New("invalid username or password")

const (
	msgUsernameTaken = "username already exists!"
	msgEmailTaken    = "email already exists!"
	msgConfirm       = "passwords do not match"
)

// UserStore defines the persistence Accounts needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, username, email string) error
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username string `schema:"username" validate:"required,max=20"`
	Email    string `schema:"email" validate:"required,email,max=120"`
	Password string `schema:"password" validate:"required"`
	Confirm  string `schema:"confirm"`
}

// ProfileInput is the account form on the about page.
type ProfileInput struct {
	Username string `schema:"username" validate:"required,max=20"`
	Email    string `schema:"email" validate:"required,email,max=120"`
}

// Accounts is the credential store.
type Accounts struct {
	users UserStore
}

func NewAccounts(users UserStore) *Accounts {
	return &Accounts{users: users}
}

// Register creates a user. Rejections come back as forms.FieldErrors.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := forms.Validate(in); err != nil {
		return nil, err
	}
	if in.Confirm != in.Password {
		return nil, forms.FieldErrors{"confirm": msgConfirm}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	user, err := a.users.CreateUser(ctx, in.Username, in.Email, hash)
	if err != nil {
		return nil, fieldError(err)
	}
	return user, nil
}

// Authenticate returns the user whose password matches.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateProfile changes username and email together. On success user is
// updated in place.
func (a *Accounts) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) error {
	if err := forms.Validate(in); err != nil {
		return err
	}
	if err := a.users.UpdateUser(ctx, user.ID, in.Username, in.Email); err != nil {
		return fieldError(err)
	}
	user.Username = in.Username
	user.Email = in.Email
	return nil
}

// User loads a user by id; used to resolve session identities.
func (a *Accounts) User(ctx context.Context, id int64) (*models.User, error) {
	return a.users.GetUserByID(ctx, id)
}

func fieldError(err error) error {
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		return forms.FieldErrors{"username": msgUsernameTaken}
	case errors.Is(err, store.ErrEmailTaken):
		return forms.FieldErrors{"email": msgEmailTaken}
	}
	return err
}
