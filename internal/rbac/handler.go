package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Handler exposes the permission administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    Guard
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Guard) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(),
	}
}

// MountRoutes registers permission administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.listCatalog)
	r.Get("/users/{id}/permissions", h.userPermissions)
	r.Post("/users/permissions", h.setOverride)
	r.Delete("/users/permissions", h.removeOverride)
}

type setOverrideRequest struct {
	UserID       string `json:"userId" validate:"required"`
	PermissionID string `json:"permissionId" validate:"required"`
	Type         string `json:"type" validate:"required,oneof=grant revoke"`
}

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermUsersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": CatalogByModule()})
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermUsersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	userID := chi.URLParam(r, "id")
	res, err := h.service.Resolve(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
			return
		}
		h.logger.Error("resolve permissions", slog.String("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) setOverride(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermUsersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req setOverrideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "userId, permissionId and type (grant|revoke) are required")
		return
	}

	err = h.service.SetOverride(r.Context(), actor.UserID, req.UserID, req.PermissionID, OverrideKind(req.Type))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		case errors.Is(err, ErrUnknownPermission):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "permission not found")
		default:
			h.logger.Error("set override", slog.String("user_id", req.UserID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"userId":       req.UserID,
		"permissionId": req.PermissionID,
		"type":         req.Type,
	})
}

func (h *Handler) removeOverride(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermUsersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	userID := r.URL.Query().Get("userId")
	permissionID := r.URL.Query().Get("permissionId")
	if userID == "" || permissionID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "userId and permissionId are required")
		return
	}

	if err := h.service.RemoveOverride(r.Context(), actor.UserID, userID, permissionID); err != nil {
		h.logger.Error("remove override", slog.String("user_id", userID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"userId":       userID,
		"permissionId": permissionID,
	})
}
