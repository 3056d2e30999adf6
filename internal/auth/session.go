package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/pkg/errors"

	"goblog/internal/models"
	"goblog/internal/store"
)

const (
	sessionName = "session"
	userIDKey   = "user_id"
)

// NewCookieStore returns a signed cookie store for the session cookie.
func NewCookieStore(secret []byte, maxAge int) *sessions.CookieStore {
	s := sessions.NewCookieStore(secret)
	s.Options = cookieOptions(maxAge)
	s.MaxAge(maxAge)
	return s
}

func cookieOptions(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Sessions binds users to browser sessions.
type Sessions struct {
	store    sessions.Store
	accounts *Accounts
}

func NewSessions(store sessions.Store, accounts *Accounts) *Sessions {
	return &Sessions{store: store, accounts: accounts}
}

// Login binds user to the request's session. Server-side sessions get a
// fresh id so an id planted before login is worthless afterwards.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, user *models.User) error {
	session, _ := s.store.Get(r, sessionName)
	if rs, ok := s.store.(*RedisStore); ok {
		if err := rs.renew(r.Context(), session); err != nil {
			return err
		}
	}
	session.Values[userIDKey] = user.ID
	return errors.Wrap(session.Save(r, w), "save session")
}

// Logout clears the binding. Flashes survive.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, userIDKey)
	return errors.Wrap(session.Save(r, w), "save session")
}

// CurrentUser returns the bound user, or nil for anonymous requests. A
// session naming a user that no longer exists is anonymous.
func (s *Sessions) CurrentUser(r *http.Request) (*models.User, error) {
	session, _ := s.store.Get(r, sessionName)
	userID, ok := session.Values[userIDKey].(int64)
	if !ok {
		return nil, nil
	}
	user, err := s.accounts.User(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, message string) error {
	session, _ := s.store.Get(r, sessionName)
	session.AddFlash(message)
	return session.Save(r, w)
}

// Flashes pops pending flash messages. The messages are returned even when
// saving the emptied session fails.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) ([]string, error) {
	session, _ := s.store.Get(r, sessionName)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil, nil
	}
	err := errors.Wrap(session.Save(r, w), "save session")

	messages := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if m, ok := f.(string); ok {
			messages = append(messages, m)
		}
	}
	return messages, err
}
