package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

type stubUsersRepo struct {
	users       map[string]User
	emailTaken  bool
	createdHash string
	lastReset   struct {
		id   string
		hash string
	}
}

func (r *stubUsersRepo) List(_ context.Context) ([]User, error) { return nil, nil }

func (r *stubUsersRepo) Get(_ context.Context, id string) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *stubUsersRepo) EmailExists(_ context.Context, _ string) (bool, error) {
	return r.emailTaken, nil
}

func (r *stubUsersRepo) Create(_ context.Context, email, name, role, passwordHash string) (User, error) {
	r.createdHash = passwordHash
	return User{ID: "u-new", Email: email, Name: name, Role: role, IsActive: true}, nil
}

func (r *stubUsersRepo) Update(_ context.Context, id string, name, role *string, isActive *bool) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if role != nil {
		u.Role = *role
	}
	if isActive != nil {
		u.IsActive = *isActive
	}
	r.users[id] = u
	return u, nil
}

func (r *stubUsersRepo) SetPasswordHash(_ context.Context, id, hash string) error {
	r.lastReset.id = id
	r.lastReset.hash = hash
	return nil
}

type captureAuditStore struct {
	entries []audit.Entry
}

func (c *captureAuditStore) Insert(_ context.Context, e audit.Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func newUsersService(repo RepositoryPort, store audit.Store) *Service {
	rec := audit.NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewService(repo, rec)
}

func TestCreateNormalizesEmailAndHashesPassword(t *testing.T) {
	repo := &stubUsersRepo{}
	store := &captureAuditStore{}
	svc := newUsersService(repo, store)

	user, err := svc.Create(context.Background(), "admin-1", CreateUserRequest{
		Email:    "  Nueva.Persona@AguaTresTorres.CL ",
		Name:     " Nueva Persona ",
		Role:     "operador",
		Password: "secreto123",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.Email != "nueva.persona@aguatrestorres.cl" {
		t.Fatalf("email = %q, want lowercased and trimmed", user.Email)
	}
	if user.Name != "Nueva Persona" {
		t.Fatalf("name = %q", user.Name)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.createdHash), []byte("secreto123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(store.entries) != 1 || store.entries[0].Action != audit.ActionUserCreated {
		t.Fatalf("audit = %+v", store.entries)
	}
}

func TestCreateRejectsTakenEmail(t *testing.T) {
	svc := newUsersService(&stubUsersRepo{emailTaken: true}, &captureAuditStore{})

	_, err := svc.Create(context.Background(), "admin-1", CreateUserRequest{
		Email:    "operador@aguatrestorres.cl",
		Name:     "Duplicado",
		Role:     "operador",
		Password: "secreto123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestUpdateAuditsBeforeAndAfter(t *testing.T) {
	repo := &stubUsersRepo{users: map[string]User{
		"u1": {ID: "u1", Name: "Antes", Role: "repartidor", IsActive: true},
	}}
	store := &captureAuditStore{}
	svc := newUsersService(repo, store)

	role := "operador"
	after, err := svc.Update(context.Background(), "admin-1", "u1", UpdateUserRequest{Role: &role})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if after.Role != "operador" || after.Name != "Antes" {
		t.Fatalf("after = %+v", after)
	}
	e := store.entries[0]
	if e.Action != audit.ActionUserUpdated {
		t.Fatalf("action = %s", e.Action)
	}
	if e.OldValue["role"] != "repartidor" || e.NewValue["role"] != "operador" {
		t.Fatalf("audit values = %v -> %v", e.OldValue, e.NewValue)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	svc := newUsersService(&stubUsersRepo{}, &captureAuditStore{})

	if _, err := svc.Update(context.Background(), "admin-1", "ghost", UpdateUserRequest{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResetPasswordStoresNewHashAndAudits(t *testing.T) {
	repo := &stubUsersRepo{}
	store := &captureAuditStore{}
	svc := newUsersService(repo, store)

	err := svc.ResetPassword(context.Background(), "admin-1", ResetPasswordRequest{
		UserID:   "u1",
		Password: "nueva-clave-9",
	})
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if repo.lastReset.id != "u1" {
		t.Fatalf("reset id = %q", repo.lastReset.id)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.lastReset.hash), []byte("nueva-clave-9")); err != nil {
		t.Fatalf("hash mismatch: %v", err)
	}
	e := store.entries[0]
	if e.Action != audit.ActionUserPasswordChanged || e.EntityID != "u1" {
		t.Fatalf("audit entry = %+v", e)
	}
	if e.NewValue != nil {
		t.Fatalf("password audit must not carry values, got %v", e.NewValue)
	}
}
