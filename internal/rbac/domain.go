package rbac

import (
	"errors"
	"time"
)

// ErrNotFound indicates the referenced user does not exist.
var ErrNotFound = errors.New("rbac: user not found")

// ErrUnknownPermission indicates a permission id outside the static catalog.
var ErrUnknownPermission = errors.New("rbac: unknown permission")

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleOperador   Role = "operador"
	RoleRepartidor Role = "repartidor"
)

// IsValid reports whether the role belongs to the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperador, RoleRepartidor:
		return true
	default:
		return false
	}
}

// Permission is one atomic capability, identified as resource.action.
type Permission struct {
	ID          string `json:"permission_id"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// OverrideKind distinguishes an explicit grant from an explicit revoke.
type OverrideKind string

const (
	OverrideGrant  OverrideKind = "grant"
	OverrideRevoke OverrideKind = "revoke"
)

// IsValid reports whether the kind is grant or revoke.
func (k OverrideKind) IsValid() bool {
	return k == OverrideGrant || k == OverrideRevoke
}

// Override is a user-specific exception layered on top of role defaults.
// At most one override exists per (user, permission) pair; a new write for
// the same pair replaces the prior one.
type Override struct {
	UserID       string    `json:"user_id"`
	PermissionID string    `json:"permission_id"`
	Granted      bool      `json:"granted"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Resolution is the effective permission breakdown for one user.
type Resolution struct {
	RolePermissions    []string `json:"rolePermissions"`
	CustomPermissions  []string `json:"customPermissions"`
	RevokedPermissions []string `json:"revokedPermissions"`
	Effective          []string `json:"effectivePermissions"`
}

// Has reports whether the permission is in the effective set.
func (res Resolution) Has(permission string) bool {
	for _, p := range res.Effective {
		if p == permission {
			return true
		}
	}
	return false
}
