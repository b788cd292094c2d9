package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/aguatrestorres/backoffice/internal/shared"
)

type stubUserRepo struct {
	user    *User
	findErr error
	touched string
}

func (s *stubUserRepo) FindByEmail(_ context.Context, _ string) (*User, error) {
	return s.user, s.findErr
}

func (s *stubUserRepo) TouchLogin(_ context.Context, userID string) error {
	s.touched = userID
	return nil
}

func newTokenStore(t *testing.T) *TokenStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTokenStore(client, time.Hour)
}

func activeUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &User{
		ID:           "u1",
		Email:        "operador@aguatrestorres.cl",
		Name:         "Operador",
		Role:         "operador",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := &stubUserRepo{user: activeUser(t, "secreto123")}
	tokens := newTokenStore(t)
	svc := NewService(repo, tokens)

	token, identity, err := svc.Login(context.Background(), "operador@aguatrestorres.cl", "secreto123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if identity.UserID != "u1" || identity.Role != "operador" {
		t.Fatalf("identity = %+v", identity)
	}
	if repo.touched != "u1" {
		t.Fatalf("login bookkeeping touched %q", repo.touched)
	}

	got, err := tokens.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID != "u1" || got.Email != identity.Email {
		t.Fatalf("verified identity = %+v", got)
	}
}

func TestLoginCollapsesFailuresIntoInvalidCredentials(t *testing.T) {
	tokens := newTokenStore(t)

	cases := []struct {
		name string
		repo *stubUserRepo
		pass string
	}{
		{"unknown email", &stubUserRepo{findErr: errors.New("no rows")}, "whatever"},
		{"wrong password", &stubUserRepo{user: activeUser(t, "correcta")}, "incorrecta"},
		{"inactive account", &stubUserRepo{user: func() *User {
			u := activeUser(t, "secreto123")
			u.IsActive = false
			return u
		}()}, "secreto123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.repo, tokens)
			_, _, err := svc.Login(context.Background(), "x@aguatrestorres.cl", tc.pass)
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Fatalf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := &stubUserRepo{user: activeUser(t, "secreto123")}
	tokens := newTokenStore(t)
	svc := NewService(repo, tokens)

	token, _, err := svc.Login(context.Background(), "operador@aguatrestorres.cl", "secreto123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := tokens.Verify(context.Background(), token); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken after logout", err)
	}
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	tokens := newTokenStore(t)

	if _, err := tokens.Verify(context.Background(), "nope"); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
	if _, err := tokens.Verify(context.Background(), ""); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken for empty token", err)
	}
}
