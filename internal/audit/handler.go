package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Exports walk the whole range, keep them rare.
const (
	exportRateLimit  = 10
	exportRateWindow = time.Minute
)

// Authorizer gates requests on a permission. Satisfied by rbac.Guard; the
// recorder side of this package is a dependency of rbac, so the handler
// cannot import it back.
type Authorizer interface {
	Authorize(ctx context.Context, permission string) (*shared.Identity, error)
}

// Handler serves the activity log.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   Authorizer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Authorizer) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers activity log routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/audit", h.activity)
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(exportRateLimit, exportRateWindow,
			httprate.WithKeyFuncs(exportRateKey),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.RespondError(w, httpx.ErrRateLimited)
			}),
		))
		r.Get("/audit/export.csv", h.exportCSV)
	})
}

func exportRateKey(r *http.Request) (string, error) {
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		return "user:" + identity.UserID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermAuditView); err != nil {
		httpx.RespondError(w, err)
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Activity(r.Context(), filters)
	if err != nil {
		h.logger.Error("load activity log", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	entries := result.Entries
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   result.Total,
		"limit":   filters.Limit,
		"offset":  filters.Offset,
	})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermAuditView); err != nil {
		httpx.RespondError(w, err)
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entries, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("export activity log", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="activity.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"created_at", "actor_id", "action", "entity_type", "entity_id", "old_value", "new_value", "ip_address"})
	for _, e := range entries {
		_ = cw.Write([]string{
			e.CreatedAt.Format(time.RFC3339),
			e.ActorID,
			e.Action,
			e.EntityType,
			e.EntityID,
			encodeValue(e.OldValue),
			encodeValue(e.NewValue),
			e.IPAddress,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("write activity csv", slog.Any("error", err))
	}
}

func encodeValue(v map[string]any) string {
	if len(v) == 0 {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func parseFilters(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	f := Filters{ActorID: q.Get("user_id")}
	if f.ActorID == "" {
		return Filters{}, fmt.Errorf("user_id is required")
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filters{}, fmt.Errorf("start_date must be YYYY-MM-DD")
		}
		f.From = t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filters{}, fmt.Errorf("end_date must be YYYY-MM-DD")
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filters{}, fmt.Errorf("end_date is before start_date")
	}
	return f, nil
}
