package web

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/pkg/errors"

	"goblog/internal/forms"
	"goblog/internal/models"
)

// --- Template helpers ---

func gravatar(email string) string {
	h := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon&s=48", h)
}

// userView is what templates see of a user.
type userView struct {
	ID       int64
	Username string
	Email    string
	Avatar   string
}

type postView struct {
	ID      int64
	Title   string
	Content string
	Author  string
	Avatar  string
	Date    string
	Ago     string
}

func newUserView(u *models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: gravatar(u.Email)}
}

func newPostView(p *models.Post) postView {
	return postView{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		Author:  p.Author.Username,
		Avatar:  gravatar(p.Author.Email),
		Date:    p.DatePosted.Format("2006-01-02 @ 15:04"),
		Ago:     humanize.Time(p.DatePosted),
	}
}

func newPostViews(posts []models.Post) []postView {
	views := make([]postView, 0, len(posts))
	for i := range posts {
		views = append(views, newPostView(&posts[i]))
	}
	return views
}

const layoutTemplate = "layout.html"

// renderer loads gonja templates from dir on every call, so edits show up
// without a restart. Pages are rendered first and handed to the layout as
// content.
type renderer struct {
	dir string
}

func (rd *renderer) executeFile(name string, data map[string]interface{}) (string, error) {
	tpl, err := gonja.FromFile(filepath.Join(rd.dir, name))
	if err != nil {
		return "", errors.Wrapf(err, "parse %s", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, exec.NewContext(data)); err != nil {
		return "", errors.Wrapf(err, "execute %s", name)
	}
	return buf.String(), nil
}

func (rd *renderer) execute(name string, data map[string]interface{}) ([]byte, error) {
	content, err := rd.executeFile(name, data)
	if err != nil {
		return nil, err
	}
	data["content"] = content
	page, err := rd.executeFile(layoutTemplate, data)
	if err != nil {
		return nil, err
	}
	return []byte(page), nil
}

// render executes templateFile with the current user and pending flashes
// added to data, then writes it with the given status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, templateFile string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["current_user"]; !ok {
		if user := currentUser(r); user != nil {
			data["current_user"] = newUserView(user)
		} else {
			data["current_user"] = nil
		}
	}
	if _, ok := data["flashes"]; !ok {
		flashes, err := s.sessions.Flashes(w, r)
		if err != nil {
			s.log.WithError(err).Warn("clear flashes")
		}
		if flashes == nil {
			flashes = []string{}
		}
		data["flashes"] = flashes
	}

	// gonja treats error values as failed lookups, so field errors go to
	// templates as a plain map.
	if fe, ok := data["errors"].(forms.FieldErrors); ok {
		data["errors"] = map[string]string(fe)
	}

	body, err := s.templates.execute(templateFile, data)
	if err != nil {
		s.log.WithError(err).WithField("template", templateFile).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// renderError shows the error page for status.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	s.render(w, r, status, "error.html", map[string]interface{}{
		"title":   http.StatusText(status),
		"status":  status,
		"message": http.StatusText(status),
	})
}
