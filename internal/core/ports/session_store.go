package ports

import (
	"context"
	"time"
)

// Identity is what the host session mechanism knows about the caller. Either
// UserID or Email may be empty, but not both. SessionID is set when the
// identity came from a stored session.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

// Session is a server-side login session referenced by an opaque cookie value.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// SessionStore persists sessions. Get returns domain.ErrSessionNotFound for
// unknown or expired ids.
type SessionStore interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
