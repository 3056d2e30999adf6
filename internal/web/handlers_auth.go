package web

import (
	"net/http"

	"github.com/pkg/errors"

	"goblog/internal/auth"
	"goblog/internal/forms"
)

// GET + POST /login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	next := r.FormValue("next")
	errorMsg := ""
	username := ""
	if r.Method == http.MethodPost {
		username = r.FormValue("username")
		user, err := s.accounts.Authenticate(r.Context(), username, r.FormValue("password"))
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			errorMsg = "Invalid username or password"
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			if err := s.sessions.Login(w, r, user); err != nil {
				s.serverError(w, r, err)
				return
			}
			s.sessions.AddFlash(w, r, "You were logged in")
			http.Redirect(w, r, safeNext(next), http.StatusFound)
			return
		}
	}

	s.render(w, r, http.StatusOK, "login.html", map[string]interface{}{
		"title":    "Login",
		"error":    errorMsg,
		"username": username,
		"next":     next,
	})
}

// GET /logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.sessions.AddFlash(w, r, "You were logged out")
	http.Redirect(w, r, "/", http.StatusFound)
}

// GET + POST /register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	var in auth.RegisterInput
	fieldErrors := forms.FieldErrors{}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest)
			return
		}
		if err := forms.Decode(&in, r.PostForm); err != nil {
			s.renderError(w, r, http.StatusBadRequest)
			return
		}
		_, err := s.accounts.Register(r.Context(), in)
		var fe forms.FieldErrors
		switch {
		case errors.As(err, &fe):
			fieldErrors = fe
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			s.sessions.AddFlash(w, r, "You were successfully registered and can login now")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
	}

	s.render(w, r, http.StatusOK, "register.html", map[string]interface{}{
		"title":    "Register",
		"username": in.Username,
		"email":    in.Email,
		"errors":   fieldErrors,
	})
}

// GET + POST /about
func (s *Server) about(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	fieldErrors := forms.FieldErrors{}

	if r.Method == http.MethodPost {
		var in auth.ProfileInput
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest)
			return
		}
		if err := forms.Decode(&in, r.PostForm); err != nil {
			s.renderError(w, r, http.StatusBadRequest)
			return
		}
		err := s.accounts.UpdateProfile(r.Context(), user, in)
		var fe forms.FieldErrors
		switch {
		case errors.As(err, &fe):
			fieldErrors = fe
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			s.sessions.AddFlash(w, r, "Your account has been updated!")
			http.Redirect(w, r, "/about", http.StatusFound)
			return
		}
	}

	posts, err := s.posts.ListByOwner(r.Context(), user)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "about.html", map[string]interface{}{
		"title":    "Account",
		"username": user.Username,
		"email":    user.Email,
		"avatar":   gravatar(user.Email),
		"posts":    newPostViews(posts),
		"errors":   fieldErrors,
	})
}
