package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates email/password credentials and issues a bearer token.
// Lookup failures and bad passwords collapse into ErrInvalidCredentials so
// the response does not leak which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, *shared.Identity, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}

	identity := shared.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}
	token, err := s.tokens.Issue(ctx, identity)
	if err != nil {
		return "", nil, fmt.Errorf("auth: issue token: %w", err)
	}
	// Login bookkeeping must not block the login itself.
	_ = s.repo.TouchLogin(ctx, user.ID)
	return token, &identity, nil
}

// Logout revokes the bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}
