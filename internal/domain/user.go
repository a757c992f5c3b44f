package domain

import (
	"context"
	"time"
)

// User is an authenticated account. FirstName and BusinessDescription, when
// set, are injected into the assistant's per-turn context.
type User struct {
	ID                  int64  `json:"id"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	FirstName           string `json:"first_name,omitempty"`
	BusinessDescription string `json:"business_description,omitempty"`
	HashedPassword      string `json:"-"`
	Disabled            bool   `json:"disabled"`
	IsAdmin             bool   `json:"is_admin"`
}

// UserSession is an opaque login token with an expiry.
type UserSession struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *UserSession) error
	GetSession(ctx context.Context, token string) (*UserSession, error)
	DeleteSession(ctx context.Context, token string) error
}
