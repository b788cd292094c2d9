package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, email, name, role, passwordHash string) (User, error)
	Update(ctx context.Context, id string, name, role *string, isActive *bool) (User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}

// Service handles user administration business logic.
type Service struct {
	repo    RepositoryPort
	auditor *audit.Recorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account and audits it.
func (s *Service) Create(ctx context.Context, actorID string, req CreateUserRequest) (User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	taken, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, email, strings.TrimSpace(req.Name), req.Role, string(hash))
	if err != nil {
		return User{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionUserCreated,
		EntityType: "user",
		EntityID:   user.ID,
		NewValue:   map[string]any{"email": user.Email, "name": user.Name, "role": user.Role},
	})
	return user, nil
}

// Update patches an account and audits the change with before/after state.
func (s *Service) Update(ctx context.Context, actorID, id string, req UpdateUserRequest) (User, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	after, err := s.repo.Update(ctx, id, req.Name, req.Role, req.IsActive)
	if err != nil {
		return User{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionUserUpdated,
		EntityType: "user",
		EntityID:   id,
		OldValue:   map[string]any{"name": before.Name, "role": before.Role, "is_active": before.IsActive},
		NewValue:   map[string]any{"name": after.Name, "role": after.Role, "is_active": after.IsActive},
	})
	return after, nil
}

// ResetPassword sets a new password on behalf of an administrator.
func (s *Service) ResetPassword(ctx context.Context, actorID string, req ResetPasswordRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, req.UserID, string(hash)); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionUserPasswordChanged,
		EntityType: "user",
		EntityID:   req.UserID,
	})
	return nil
}
