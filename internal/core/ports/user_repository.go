package ports

import (
	"context"
	"time"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

// UserRepository is the identity store. Lookups return domain.ErrUserNotFound
// when no record matches; any other error is an infrastructure failure.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
