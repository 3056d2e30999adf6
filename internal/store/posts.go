package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"goblog/internal/models"
)

const postSelect = `
	SELECT posts.id, posts.title, posts.content, posts.date_posted, posts.user_id,
	       users.id, users.username, users.email, users.password_hash
	FROM posts
	JOIN users ON posts.user_id = users.id`

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.DatePosted, &p.UserID,
		&p.Author.ID, &p.Author.Username, &p.Author.Email, &p.Author.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...interface{}) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// CreatePost inserts a post owned by userID and returns it with its author.
func (s *Store) CreatePost(ctx context.Context, userID int64, title, content string, postedAt time.Time) (*models.Post, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		s.rebind("INSERT INTO posts (title, content, date_posted, user_id) VALUES (?, ?, ?, ?) RETURNING id"),
		title, content, postedAt, userID).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "create post")
	}
	return s.GetPost(ctx, id)
}

func (s *Store) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, s.rebind(postSelect+" WHERE posts.id = ?"), id))
	if err != nil {
		return nil, errors.Wrapf(err, "get post %d", id)
	}
	return p, nil
}

// ListPosts returns all posts in storage order.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.queryPosts(ctx, postSelect+" ORDER BY posts.id")
	return posts, errors.Wrap(err, "list posts")
}

func (s *Store) ListPostsByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	posts, err := s.queryPosts(ctx, postSelect+" WHERE posts.user_id = ? ORDER BY posts.id", userID)
	return posts, errors.Wrapf(err, "list posts of user %d", userID)
}

func (s *Store) UpdatePost(ctx context.Context, id int64, title, content string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE posts SET title = ?, content = ? WHERE id = ?"), title, content, id)
	if err != nil {
		return errors.Wrapf(err, "update post %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "update post %d", id)
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM posts WHERE id = ?"), id)
	if err != nil {
		return errors.Wrapf(err, "delete post %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "delete post %d", id)
	}
	return nil
}
