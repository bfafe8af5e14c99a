package ports

import (
	"context"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

// LoginMeta carries request details stored alongside a new session.
type LoginMeta struct {
	IP        string
	UserAgent string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Session *Session
	Token   string
	User    *domain.User
}

type AuthService interface {
	Login(ctx context.Context, email, password string, meta LoginMeta) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}
