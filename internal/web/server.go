// Package web serves the blog's HTML pages.
package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"goblog/internal/auth"
	"goblog/internal/blog"
	"goblog/internal/models"
)

// Options configures a Server.
type Options struct {
	Accounts    *auth.Accounts
	Sessions    *auth.Sessions
	Posts       *blog.Posts
	Logger      *logrus.Logger
	TemplateDir string
	StaticDir   string
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	accounts  *auth.Accounts
	sessions  *auth.Sessions
	posts     *blog.Posts
	log       *logrus.Logger
	templates *renderer
	staticDir string
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		accounts:  opts.Accounts,
		sessions:  opts.Sessions,
		posts:     opts.Posts,
		log:       logger,
		templates: &renderer{dir: opts.TemplateDir},
		staticDir: opts.StaticDir,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	chain := []mux.MiddlewareFunc{
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.log, NoColor: true}),
		middleware.Recoverer,
		s.loadUser,
	}
	r.Use(chain...)

	r.HandleFunc("/", s.home).Methods(http.MethodGet)
	r.HandleFunc("/home", s.home).Methods(http.MethodGet)
	r.HandleFunc("/contact", s.contact).Methods(http.MethodGet)
	r.HandleFunc("/login", s.login).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodGet)
	r.HandleFunc("/register", s.register).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/about", s.requireUser(s.about)).Methods(http.MethodGet, http.MethodPost)

	r.Handle("/post/new", s.requireUser(s.newPost)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/post/{id:[0-9]+}", s.showPost).Methods(http.MethodGet)
	r.Handle("/post/{id:[0-9]+}/update", s.requireUser(s.updatePost)).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/post/{id:[0-9]+}/delete", s.requireUser(s.deletePost)).Methods(http.MethodPost)

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))

	// mux skips the middleware chain for unmatched requests.
	r.NotFoundHandler = wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound)
	}), chain)
	r.MethodNotAllowedHandler = wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusMethodNotAllowed)
	}), chain)
	return r
}

func wrap(h http.Handler, chain []mux.MiddlewareFunc) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

type contextKey struct{}

var userKey = contextKey{}

// loadUser resolves the session identity once per request.
func (s *Server) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessions.CurrentUser(r)
		if err != nil {
			s.log.WithError(err).Warn("load session user")
		}
		if user != nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the logged-in user or nil.
func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}

// requireUser redirects anonymous requests to the login page. GET requests
// remember where they were going; a form submission can't be replayed
// after login, so it lands on the feed instead.
func (s *Server) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			s.sessions.AddFlash(w, r, "Please log in to access this page.")
			target := "/login"
			if r.Method == http.MethodGet {
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next(w, r)
	})
}

// safeNext only allows redirects to local paths. Browsers drop control
// characters from Location, so "/\t/host" would become "//host".
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	if strings.IndexFunc(next, func(c rune) bool { return c < 0x20 || c == 0x7f }) >= 0 {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// serverError logs err and answers 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	}).Error("request failed")
	s.renderError(w, r, http.StatusInternalServerError)
}
