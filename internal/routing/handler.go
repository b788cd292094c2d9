package routing

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/rbac"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Route optimization hits a paid upstream, keep it on a short leash.
const (
	optimizeRateLimit  = 10
	optimizeRateWindow = time.Minute
)

// Handler manages route planning endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    rbac.Guard
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers routing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(optimizeRateLimit, optimizeRateWindow,
			httprate.WithKeyFuncs(keyByIdentity),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.RespondError(w, httpx.ErrRateLimited)
			}),
		))
		r.Post("/routes/optimize", h.optimize)
	})
	r.Post("/routes/group", h.group)
	r.Get("/routes", h.list)
	r.Get("/routes/{id}", h.get)
	r.Post("/routes", h.save)
	r.Delete("/routes/{id}", h.delete)
}

// keyByIdentity buckets by authenticated user, falling back to client IP.
func keyByIdentity(r *http.Request) (string, error) {
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		return identity.UserID, nil
	}
	return httprate.KeyByIP(r)
}

func (h *Handler) optimize(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermRoutesOptimize); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req OptimizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "orders are required")
		return
	}
	route, err := h.service.Optimize(r.Context(), req.Orders)
	if err != nil {
		h.respondServiceError(w, "optimize route", err)
		return
	}
	httpx.JSON(w, http.StatusOK, route)
}

func (h *Handler) group(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermRoutesOptimize); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req OptimizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"trips": h.service.GroupByCapacity(req.Orders)})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermRoutesOptimize); err != nil {
		httpx.RespondError(w, err)
		return
	}
	routes, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list routes", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if routes == nil {
		routes = []SavedRoute{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"routes": routes})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermRoutesOptimize); err != nil {
		httpx.RespondError(w, err)
		return
	}
	route, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, "get route", err)
		return
	}
	httpx.JSON(w, http.StatusOK, route)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermRoutesSave)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SaveRouteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "route_name and stops are required")
		return
	}
	route, err := h.service.Save(r.Context(), actor.UserID, req)
	if err != nil {
		h.respondServiceError(w, "save route", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, route)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermRoutesSave); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, "delete route", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNoOrders), errors.Is(err, ErrMissingCoordinates):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "route not found")
	case errors.Is(err, ErrDirectionsUnavailable):
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "route service unavailable")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
