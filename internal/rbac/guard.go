package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Guard authorizes an authenticated request for a specific permission
// before any mutation happens. It is a pure gate with no side effects.
type Guard struct {
	Service *Service
	Logger  *slog.Logger
}

// Authorize returns the acting identity when it holds the required
// permission. A missing identity maps to 401, an insufficient or
// unresolvable permission set to 403. Resolution failures deny: a timeout
// against the store is never treated as "no overrides".
func (g Guard) Authorize(ctx context.Context, required string) (*shared.Identity, error) {
	identity := shared.IdentityFromContext(ctx)
	if identity == nil {
		return nil, httpx.ErrUnauthorized
	}
	res, err := g.Service.Resolve(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httpx.ErrUnauthorized
		}
		if g.Logger != nil {
			g.Logger.Error("permission resolution failed, denying",
				slog.String("user_id", identity.UserID),
				slog.String("permission", required),
				slog.Any("error", err),
			)
		}
		return nil, httpx.ErrForbidden
	}
	if !res.Has(required) {
		return nil, httpx.ErrForbidden
	}
	return identity, nil
}
