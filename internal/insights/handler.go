package insights

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/rbac"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Handler manages demand forecast endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers insight routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/insights/health", h.health)
	r.Get("/insights/predictions", h.predictions)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermReportsView); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Health(r.Context()); err != nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "down"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) predictions(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermReportsView); err != nil {
		httpx.RespondError(w, err)
		return
	}
	weeks, _ := strconv.Atoi(r.URL.Query().Get("weeks"))
	list, err := h.service.Predictions(r.Context(), r.URL.Query().Get("commune"), weeks)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			h.logger.Error("fetch predictions", slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "prediction service unavailable")
			return
		}
		h.logger.Error("fetch predictions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"predictions": list})
}
