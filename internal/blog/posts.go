// Package blog holds posts and enforces that only a post's owner may
// change it.
package blog

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"goblog/internal/forms"
	"goblog/internal/models"
	"goblog/internal/store"
)

var (
	ErrNotFound  = store.ErrNotFound
	ErrForbidden = errors.New("forbidden")
)

// PostStore defines the persistence Posts needs.
type PostStore interface {
	CreatePost(ctx context.Context, userID int64, title, content string, postedAt time.Time) (*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByUser(ctx context.Context, userID int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, id int64, title, content string) error
	DeletePost(ctx context.Context, id int64) error
}

// PostInput is the create/update form.
type PostInput struct {
	Title   string `schema:"title" validate:"required,max=100"`
	Content string `schema:"content" validate:"required"`
}

type Posts struct {
	store PostStore
	now   func() time.Time
}

func NewPosts(store PostStore) *Posts {
	return &Posts{store: store, now: time.Now}
}

// Create stores a post owned by owner, stamped with the current time.
func (p *Posts) Create(ctx context.Context, owner *models.User, in PostInput) (*models.Post, error) {
	if err := forms.Validate(in); err != nil {
		return nil, err
	}
	return p.store.CreatePost(ctx, owner.ID, in.Title, in.Content, p.now().UTC())
}

func (p *Posts) Get(ctx context.Context, id int64) (*models.Post, error) {
	return p.store.GetPost(ctx, id)
}

// List returns the feed.
func (p *Posts) List(ctx context.Context) ([]models.Post, error) {
	return p.store.ListPosts(ctx)
}

func (p *Posts) ListByOwner(ctx context.Context, owner *models.User) ([]models.Post, error) {
	return p.store.ListPostsByUser(ctx, owner.ID)
}

// GetOwned returns the post if actor owns it, ErrForbidden otherwise.
func (p *Posts) GetOwned(ctx context.Context, actor *models.User, id int64) (*models.Post, error) {
	post, err := p.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(actor) {
		return nil, ErrForbidden
	}
	return post, nil
}

// Update replaces title and content of a post owned by actor.
func (p *Posts) Update(ctx context.Context, actor *models.User, id int64, in PostInput) (*models.Post, error) {
	post, err := p.GetOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := forms.Validate(in); err != nil {
		return post, err
	}
	if err := p.store.UpdatePost(ctx, id, in.Title, in.Content); err != nil {
		return nil, err
	}
	post.Title = in.Title
	post.Content = in.Content
	return post, nil
}

// Delete removes a post owned by actor.
func (p *Posts) Delete(ctx context.Context, actor *models.User, id int64) error {
	if _, err := p.GetOwned(ctx, actor, id); err != nil {
		return err
	}
	return p.store.DeletePost(ctx, id)
}
