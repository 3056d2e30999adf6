package models

import "time"

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
}

// Post represents a blog post joined with its author.
type Post struct {
	ID         int64
	Title      string
	Content    string
	DatePosted time.Time
	UserID     int64
	Author     User
}

// OwnedBy reports whether u is the post's owner.
func (p *Post) OwnedBy(u *User) bool {
	return u != nil && p.UserID == u.ID
}
