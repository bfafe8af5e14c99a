package ports

import (
	"context"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

// CreateUserInput carries the fields needed to create an operator account.
type CreateUserInput struct {
	Email    string
	Username string
	Password string
	Role     domain.Role
}

// UserService manages operator accounts. The actor is the already-authorized
// caller; it is used for rules the flat permission table cannot express, such
// as who may hand out super_admin.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, actor *domain.User, in CreateUserInput) (*domain.User, error)
	ChangeRole(ctx context.Context, actor *domain.User, id string, role domain.Role) (*domain.User, error)
	ChangeStatus(ctx context.Context, actor *domain.User, id string, status domain.UserStatus) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}
