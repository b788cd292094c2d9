package rbac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

func guardFor(repo Repository) Guard {
	return Guard{
		Service: NewService(repo, quietRecorder(&captureStore{})),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func authedCtx(userID string) context.Context {
	return shared.ContextWithIdentity(context.Background(), &shared.Identity{UserID: userID, Role: "operador"})
}

func TestGuardRejectsAnonymous(t *testing.T) {
	g := guardFor(&stubRepo{role: RoleOperador})

	_, err := g.Authorize(context.Background(), shared.PermOrdersRead)
	if !errors.Is(err, httpx.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestGuardAllowsPermittedUser(t *testing.T) {
	g := guardFor(&stubRepo{role: RoleOperador, rolePerms: []string{shared.PermOrdersRead}})

	identity, err := g.Authorize(authedCtx("u1"), shared.PermOrdersRead)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if identity.UserID != "u1" {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestGuardDeniesMissingPermission(t *testing.T) {
	g := guardFor(&stubRepo{role: RoleRepartidor, rolePerms: []string{shared.PermOrdersRead}})

	if _, err := g.Authorize(authedCtx("u1"), shared.PermOrdersDelete); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestGuardFailsClosedOnStoreError(t *testing.T) {
	g := guardFor(&stubRepo{role: RoleOperador, ovErr: errors.New("pg timeout")})

	if _, err := g.Authorize(authedCtx("u1"), shared.PermOrdersRead); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestGuardTreatsUnknownUserAsUnauthenticated(t *testing.T) {
	g := guardFor(&stubRepo{roleErr: ErrNotFound})

	if _, err := g.Authorize(authedCtx("gone"), shared.PermOrdersRead); !errors.Is(err, httpx.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}
