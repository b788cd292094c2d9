package rbac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/aguatrestorres/backoffice/internal/audit"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

type stubRepo struct {
	role      Role
	roleErr   error
	rolePerms []string
	permsErr  error
	overrides []Override
	ovErr     error

	stored     map[string]Override
	upsertErr  error
	deleted    bool
	deleteErr  error
	lastUpsert Override
}

func (s *stubRepo) GetUserRole(_ context.Context, _ string) (Role, error) {
	return s.role, s.roleErr
}

func (s *stubRepo) RolePermissions(_ context.Context, _ Role) ([]string, error) {
	return s.rolePerms, s.permsErr
}

func (s *stubRepo) UserOverrides(_ context.Context, _ string) ([]Override, error) {
	return s.overrides, s.ovErr
}

func (s *stubRepo) GetOverride(_ context.Context, _, permissionID string) (*Override, error) {
	if s.stored == nil {
		return nil, nil
	}
	o, ok := s.stored[permissionID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *stubRepo) UpsertOverride(_ context.Context, o Override) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.stored == nil {
		s.stored = map[string]Override{}
	}
	s.stored[o.PermissionID] = o
	s.lastUpsert = o
	return nil
}

func (s *stubRepo) DeleteOverride(_ context.Context, _, permissionID string) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	_, existed := s.stored[permissionID]
	delete(s.stored, permissionID)
	s.deleted = true
	return existed, nil
}

type captureStore struct {
	entries []audit.Entry
	err     error
}

func (c *captureStore) Insert(_ context.Context, e audit.Entry) error {
	if c.err != nil {
		return c.err
	}
	c.entries = append(c.entries, e)
	return nil
}

func quietRecorder(store audit.Store) *audit.Recorder {
	return audit.NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveCombinesRoleGrantsAndRevokes(t *testing.T) {
	repo := &stubRepo{
		role:      RoleOperador,
		rolePerms: []string{shared.PermOrdersRead, shared.PermOrdersCreate, shared.PermCustomersRead},
		overrides: []Override{
			{PermissionID: shared.PermUsersRead, Granted: true},
			{PermissionID: shared.PermOrdersCreate, Granted: false},
		},
	}
	svc := NewService(repo, quietRecorder(&captureStore{}))

	res, err := svc.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []string{shared.PermCustomersRead, shared.PermOrdersRead, shared.PermUsersRead}
	if !reflect.DeepEqual(res.Effective, want) {
		t.Fatalf("effective = %v, want %v", res.Effective, want)
	}
	if !reflect.DeepEqual(res.CustomPermissions, []string{shared.PermUsersRead}) {
		t.Fatalf("custom = %v", res.CustomPermissions)
	}
	if !reflect.DeepEqual(res.RevokedPermissions, []string{shared.PermOrdersCreate}) {
		t.Fatalf("revoked = %v", res.RevokedPermissions)
	}
}

func TestResolveAdminHoldsFullCatalog(t *testing.T) {
	repo := &stubRepo{
		role: RoleAdmin,
		// Overrides must be ignored for admins.
		overrides: []Override{{PermissionID: shared.PermOrdersRead, Granted: false}},
	}
	svc := NewService(repo, quietRecorder(&captureStore{}))

	res, err := svc.Resolve(context.Background(), "admin")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(res.Effective, CatalogIDs()) {
		t.Fatalf("admin effective = %v, want full catalog", res.Effective)
	}
	if len(res.RevokedPermissions) != 0 {
		t.Fatalf("admin revoked = %v, want none", res.RevokedPermissions)
	}
	if !res.Has(shared.PermOrdersRead) {
		t.Fatal("admin should keep orders.read despite a stored revoke")
	}
}

func TestResolveFiltersStaleCatalogEntries(t *testing.T) {
	repo := &stubRepo{
		role:      RoleRepartidor,
		rolePerms: []string{shared.PermOrdersRead, "legacy.feature"},
		overrides: []Override{{PermissionID: "another.gone", Granted: true}},
	}
	svc := NewService(repo, quietRecorder(&captureStore{}))

	res, err := svc.Resolve(context.Background(), "u2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(res.Effective, []string{shared.PermOrdersRead}) {
		t.Fatalf("effective = %v, want only orders.read", res.Effective)
	}
}

func TestResolveNeverReturnsNilSlices(t *testing.T) {
	svc := NewService(&stubRepo{role: RoleRepartidor}, quietRecorder(&captureStore{}))

	res, err := svc.Resolve(context.Background(), "u3")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.RolePermissions == nil || res.CustomPermissions == nil ||
		res.RevokedPermissions == nil || res.Effective == nil {
		t.Fatalf("resolution carries nil slices: %+v", res)
	}
}

func TestResolvePropagatesStoreError(t *testing.T) {
	boom := errors.New("pg down")
	svc := NewService(&stubRepo{role: RoleOperador, permsErr: boom}, quietRecorder(&captureStore{}))

	if _, err := svc.Resolve(context.Background(), "u4"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestCanChecksEffectiveSet(t *testing.T) {
	repo := &stubRepo{
		role:      RoleOperador,
		rolePerms: []string{shared.PermOrdersRead},
	}
	svc := NewService(repo, quietRecorder(&captureStore{}))

	if ok, err := svc.Can(context.Background(), "u1", shared.PermOrdersRead); err != nil || !ok {
		t.Fatalf("Can(orders.read) = %v, %v", ok, err)
	}
	if ok, _ := svc.Can(context.Background(), "u1", shared.PermOrdersDelete); ok {
		t.Fatal("Can(orders.delete) should be false")
	}
	if ok, _ := svc.CanAny(context.Background(), "u1", shared.PermOrdersDelete, shared.PermOrdersRead); !ok {
		t.Fatal("CanAny should match orders.read")
	}
	if ok, _ := svc.CanAll(context.Background(), "u1", shared.PermOrdersRead, shared.PermOrdersDelete); ok {
		t.Fatal("CanAll should fail on orders.delete")
	}
}

func TestSetOverrideWritesAudit(t *testing.T) {
	repo := &stubRepo{role: RoleOperador}
	store := &captureStore{}
	svc := NewService(repo, quietRecorder(store))

	if err := svc.SetOverride(context.Background(), "admin-1", "u1", shared.PermRoutesSave, OverrideGrant); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	if repo.lastUpsert.PermissionID != shared.PermRoutesSave || !repo.lastUpsert.Granted {
		t.Fatalf("upserted = %+v", repo.lastUpsert)
	}
	if len(store.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(store.entries))
	}
	e := store.entries[0]
	if e.Action != audit.ActionPermissionGrant || e.ActorID != "admin-1" || e.EntityID != "u1" {
		t.Fatalf("audit entry = %+v", e)
	}

	// Revoking the same permission replaces the override and audits again.
	if err := svc.SetOverride(context.Background(), "admin-1", "u1", shared.PermRoutesSave, OverrideRevoke); err != nil {
		t.Fatalf("SetOverride revoke: %v", err)
	}
	if repo.lastUpsert.Granted {
		t.Fatal("revoke should store granted=false")
	}
	if store.entries[1].Action != audit.ActionPermissionRevoke {
		t.Fatalf("second audit action = %s", store.entries[1].Action)
	}
}

func TestSetOverrideRejectsUnknownPermission(t *testing.T) {
	svc := NewService(&stubRepo{role: RoleOperador}, quietRecorder(&captureStore{}))

	err := svc.SetOverride(context.Background(), "admin-1", "u1", "nope.never", OverrideGrant)
	if !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("err = %v, want ErrUnknownPermission", err)
	}
}

func TestSetOverrideRejectsUnknownUser(t *testing.T) {
	svc := NewService(&stubRepo{roleErr: ErrNotFound}, quietRecorder(&captureStore{}))

	if err := svc.SetOverride(context.Background(), "admin-1", "ghost", shared.PermOrdersRead, OverrideGrant); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveOverrideIsIdempotentAndAudited(t *testing.T) {
	repo := &stubRepo{
		role: RoleOperador,
		stored: map[string]Override{
			shared.PermOrdersDelete: {UserID: "u1", PermissionID: shared.PermOrdersDelete, Granted: true},
		},
	}
	store := &captureStore{}
	svc := NewService(repo, quietRecorder(store))

	if err := svc.RemoveOverride(context.Background(), "admin-1", "u1", shared.PermOrdersDelete); err != nil {
		t.Fatalf("RemoveOverride: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("audit entries = %d", len(store.entries))
	}
	if store.entries[0].Action != audit.ActionPermissionRemoved {
		t.Fatalf("action = %s", store.entries[0].Action)
	}
	if store.entries[0].OldValue == nil {
		t.Fatal("expected pre-deletion snapshot in old_value")
	}

	// Second removal finds nothing but still succeeds and audits without a snapshot.
	if err := svc.RemoveOverride(context.Background(), "admin-1", "u1", shared.PermOrdersDelete); err != nil {
		t.Fatalf("second RemoveOverride: %v", err)
	}
	if len(store.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(store.entries))
	}
	if store.entries[1].OldValue != nil {
		t.Fatalf("old_value = %v, want nil", store.entries[1].OldValue)
	}
}
