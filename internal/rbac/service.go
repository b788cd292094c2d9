package rbac

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

// Service resolves effective permissions and manages per-user overrides.
type Service struct {
	repo    Repository
	auditor *audit.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Resolve computes the effective permission breakdown for a user: role
// defaults plus explicit grants, minus explicit revokes, set semantics.
// A store failure propagates as an error so callers can deny deliberately
// instead of mistaking it for "no overrides".
func (s *Service) Resolve(ctx context.Context, userID string) (Resolution, error) {
	role, err := s.repo.GetUserRole(ctx, userID)
	if err != nil {
		return Resolution{}, err
	}

	// Admins hold the whole catalog; overrides cannot narrow it.
	if role == RoleAdmin {
		ids := CatalogIDs()
		return Resolution{
			RolePermissions:    ids,
			CustomPermissions:  []string{},
			RevokedPermissions: []string{},
			Effective:          ids,
		}, nil
	}

	var (
		rolePerms []string
		overrides []Override
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rolePerms, err = s.repo.RolePermissions(gctx, role)
		return err
	})
	g.Go(func() error {
		var err error
		overrides, err = s.repo.UserOverrides(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}

	granted := make([]string, 0)
	revoked := make([]string, 0)
	for _, o := range overrides {
		if o.Granted {
			granted = append(granted, o.PermissionID)
		} else {
			revoked = append(revoked, o.PermissionID)
		}
	}

	effective := make(map[string]struct{}, len(rolePerms)+len(granted))
	for _, p := range rolePerms {
		if InCatalog(p) {
			effective[p] = struct{}{}
		}
	}
	// Grants referencing catalog-removed permissions stay stored but inert.
	for _, p := range granted {
		if InCatalog(p) {
			effective[p] = struct{}{}
		}
	}
	for _, p := range revoked {
		delete(effective, p)
	}

	effectiveIDs := make([]string, 0, len(effective))
	for p := range effective {
		effectiveIDs = append(effectiveIDs, p)
	}
	sort.Strings(effectiveIDs)
	sort.Strings(granted)
	sort.Strings(revoked)
	if rolePerms == nil {
		rolePerms = []string{}
	}

	return Resolution{
		RolePermissions:    rolePerms,
		CustomPermissions:  granted,
		RevokedPermissions: revoked,
		Effective:          effectiveIDs,
	}, nil
}

// Can reports whether the user effectively holds one permission.
func (s *Service) Can(ctx context.Context, userID, permission string) (bool, error) {
	res, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return res.Has(permission), nil
}

// CanAny reports whether at least one permission matches.
func (s *Service) CanAny(ctx context.Context, userID string, permissions ...string) (bool, error) {
	res, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range permissions {
		if res.Has(p) {
			return true, nil
		}
	}
	return false, nil
}

// CanAll reports whether every permission matches.
func (s *Service) CanAll(ctx context.Context, userID string, permissions ...string) (bool, error) {
	res, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range permissions {
		if !res.Has(p) {
			return false, nil
		}
	}
	return true, nil
}

// SetOverride upserts a grant or revoke for (user, permission) and records
// one audit entry per call, even when the state does not change.
func (s *Service) SetOverride(ctx context.Context, adminID, userID, permissionID string, kind OverrideKind) error {
	if !kind.IsValid() {
		return fmt.Errorf("rbac: override kind must be grant or revoke, got %q", kind)
	}
	if !InCatalog(permissionID) {
		return fmt.Errorf("%w: %s", ErrUnknownPermission, permissionID)
	}
	if _, err := s.repo.GetUserRole(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.UpsertOverride(ctx, Override{
		UserID:       userID,
		PermissionID: permissionID,
		Granted:      kind == OverrideGrant,
		CreatedBy:    adminID,
	}); err != nil {
		return err
	}

	action := audit.ActionPermissionGrant
	if kind == OverrideRevoke {
		action = audit.ActionPermissionRevoke
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    adminID,
		Action:     action,
		EntityType: "user_permission",
		EntityID:   userID,
		NewValue:   map[string]any{"permission_id": permissionID, "type": string(kind)},
	})
	return nil
}

// RemoveOverride deletes an override, returning the user to role defaults
// for that permission. Deleting a missing override is a no-op; either way
// exactly one audit entry is written, with the pre-deletion override as the
// "before" snapshot when one existed.
func (s *Service) RemoveOverride(ctx context.Context, adminID, userID, permissionID string) error {
	prior, err := s.repo.GetOverride(ctx, userID, permissionID)
	if err != nil {
		return err
	}
	if _, err := s.repo.DeleteOverride(ctx, userID, permissionID); err != nil {
		return err
	}

	var before map[string]any
	if prior != nil {
		before = map[string]any{"permission_id": prior.PermissionID, "granted": prior.Granted}
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    adminID,
		Action:     audit.ActionPermissionRemoved,
		EntityType: "user_permission",
		EntityID:   userID,
		OldValue:   before,
	})
	return nil
}
