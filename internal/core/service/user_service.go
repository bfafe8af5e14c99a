package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
)

const minPasswordLength = 8

// UserService manages operator accounts.
type UserService struct {
	repo       ports.UserRepository
	bcryptCost int
	log        zerolog.Logger
}

func NewUserService(repo ports.UserRepository, bcryptCost int, log zerolog.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, bcryptCost: bcryptCost, log: log}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Create registers a new active account. Only a super_admin may create another
// super_admin.
func (s *UserService) Create(ctx context.Context, actor *domain.User, in ports.CreateUserInput) (*domain.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || len(in.Password) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if in.Role == domain.RoleSuperAdmin && !isSuperAdmin(actor) {
		return nil, domain.ErrForbidden
	}

	return s.create(ctx, actorID(actor), email, in)
}

// EnsureSuperAdmin seeds the first super_admin account when no user with that
// email exists yet. It reports whether an account was created.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" || len(password) < minPasswordLength {
		return false, domain.ErrInvalidCredentials
	}
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("bootstrap lookup: %w", err)
	}
	if _, err := s.create(ctx, "bootstrap", email, ports.CreateUserInput{
		Email:    email,
		Password: password,
		Role:     domain.RoleSuperAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) create(ctx context.Context, actor, email string, in ports.CreateUserInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	username := in.Username
	if username == "" {
		username = email
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         in.Role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("actor_id", actor).
		Str("user_id", created.ID).
		Str("role", string(created.Role)).
		Msg("user created")
	return created, nil
}

// ChangeRole reassigns a user's role. super_admin may only be granted or revoked
// by a super_admin, and nobody may change their own role.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.User, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	target, err := s.guardTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleSuperAdmin && !isSuperAdmin(actor) {
		return nil, domain.ErrForbidden
	}
	if target.Role == role {
		return target, nil
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("actor_id", actorID(actor)).
		Str("user_id", id).
		Str("from", string(target.Role)).
		Str("to", string(role)).
		Msg("user role changed")

	target.Role = role
	return target, nil
}

// ChangeStatus activates, deactivates or suspends an account. The gate checks
// status on every request, so the change applies to open sessions immediately.
func (s *UserService) ChangeStatus(ctx context.Context, actor *domain.User, id string, status domain.UserStatus) (*domain.User, error) {
	if _, ok := domain.ParseUserStatus(string(status)); !ok {
		return nil, domain.ErrInvalidStatus
	}
	target, err := s.guardTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if target.Status == status {
		return target, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("actor_id", actorID(actor)).
		Str("user_id", id).
		Str("status", string(status)).
		Msg("user status changed")

	target.Status = status
	return target, nil
}

func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if _, err := s.guardTarget(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("actor_id", actorID(actor)).Str("user_id", id).Msg("user deleted")
	return nil
}

// guardTarget loads the target account and applies the rules shared by every
// mutation: no self-modification, and super_admin accounts are only touched by
// another super_admin.
func (s *UserService) guardTarget(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrForbidden
	}
	if actor.ID == id {
		return nil, domain.ErrForbidden
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if target.Role == domain.RoleSuperAdmin && !isSuperAdmin(actor) {
		return nil, domain.ErrForbidden
	}
	return target, nil
}

func isSuperAdmin(u *domain.User) bool {
	return u != nil && u.Role == domain.RoleSuperAdmin
}

func actorID(u *domain.User) string {
	if u == nil {
		return "system"
	}
	return u.ID
}
