package shared

import "context"

// Identity describes the authenticated actor attached to a request.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

type identityContextKey struct{}

// ContextWithIdentity stores the authenticated identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the authenticated identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
