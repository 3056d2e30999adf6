package web

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"goblog/internal/blog"
	"goblog/internal/forms"
)

// GET /, /home
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "home.html", map[string]interface{}{
		"posts": newPostViews(posts),
	})
}

// GET /contact
func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "contact.html", map[string]interface{}{
		"title": "Contact",
	})
}

// postError answers the not-found and forbidden cases, anything else is a
// server error.
func (s *Server) postError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, blog.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound)
	case errors.Is(err, blog.ErrForbidden):
		s.renderError(w, r, http.StatusForbidden)
	default:
		s.serverError(w, r, err)
	}
}

func decodePost(r *http.Request) (blog.PostInput, error) {
	var in blog.PostInput
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	err := forms.Decode(&in, r.PostForm)
	return in, err
}

// GET + POST /post/new
func (s *Server) newPost(w http.ResponseWriter, r *http.Request) {
	var in blog.PostInput
	fieldErrors := forms.FieldErrors{}

	if r.Method == http.MethodPost {
		var err error
		if in, err = decodePost(r); err != nil {
			s.renderError(w, r, http.StatusBadRequest)
			return
		}
		_, err = s.posts.Create(r.Context(), currentUser(r), in)
		var fe forms.FieldErrors
		switch {
		case errors.As(err, &fe):
			fieldErrors = fe
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			s.sessions.AddFlash(w, r, "Your post has been created!")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}

	s.render(w, r, http.StatusOK, "create_post.html", map[string]interface{}{
		"title":  "New Post",
		"legend": "Create Post",
		"btn":    "Post",
		"action": "/post/new",
		"form":   in,
		"errors": fieldErrors,
	})
}

// GET /post/{id}
func (s *Server) showPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.postError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "post.html", map[string]interface{}{
		"title":    post.Title,
		"post":     newPostView(post),
		"can_edit": post.OwnedBy(currentUser(r)),
	})
}

// GET + POST /post/{id}/update
func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	user := currentUser(r)

	post, err := s.posts.GetOwned(r.Context(), user, id)
	if err != nil {
		s.postError(w, r, err)
		return
	}
	in := blog.PostInput{Title: post.Title, Content: post.Content}
	fieldErrors := forms.FieldErrors{}

	if r.Method == http.MethodPost {
		if in, err = decodePost(r); err != nil {
			s.renderError(w, r, http.StatusBadRequest)
			return
		}
		_, err = s.posts.Update(r.Context(), user, id, in)
		var fe forms.FieldErrors
		switch {
		case errors.As(err, &fe):
			fieldErrors = fe
		case err != nil:
			s.postError(w, r, err)
			return
		default:
			s.sessions.AddFlash(w, r, "Your post has been updated!")
			http.Redirect(w, r, "/post/"+strconv.FormatInt(id, 10), http.StatusFound)
			return
		}
	}

	s.render(w, r, http.StatusOK, "create_post.html", map[string]interface{}{
		"title":  "Edit Post",
		"legend": "Update Post",
		"btn":    "Update Post",
		"action": "/post/" + strconv.FormatInt(id, 10) + "/update",
		"form":   in,
		"errors": fieldErrors,
	})
}

// POST /post/{id}/delete
func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	if err := s.posts.Delete(r.Context(), currentUser(r), id); err != nil {
		s.postError(w, r, err)
		return
	}
	s.sessions.AddFlash(w, r, "Your post has been deleted!")
	http.Redirect(w, r, "/", http.StatusFound)
}
