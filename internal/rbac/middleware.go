package rbac

import (
	"log/slog"
	"net/http"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, func(res Resolution, required []string) bool {
		for _, p := range required {
			if res.Has(p) {
				return true
			}
		}
		return len(required) == 0
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, func(res Resolution, required []string) bool {
		for _, p := range required {
			if !res.Has(p) {
				return false
			}
		}
		return true
	})
}

func (m Middleware) require(perms []string, ok func(Resolution, []string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			res, err := m.Service.Resolve(r.Context(), identity.UserID)
			if err != nil {
				// Fail closed: an unresolvable permission set denies.
				if m.Logger != nil {
					m.Logger.Error("rbac resolve", slog.String("user_id", identity.UserID), slog.Any("error", err))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			if !ok(res, perms) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
