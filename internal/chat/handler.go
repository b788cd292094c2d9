package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/rbac"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// TranscriptStore persists chat turns, best effort.
type TranscriptStore interface {
	Insert(ctx context.Context, t Transcript) error
}

// SendMessageRequest is one user message for the assistant.
type SendMessageRequest struct {
	Message   string `json:"message" validate:"required,max=4000"`
	UserID    string `json:"userId" validate:"required"`
	SessionID string `json:"sessionId,omitempty"`
}

// Handler proxies the back-office assistant.
type Handler struct {
	logger      *slog.Logger
	assistant   Assistant
	limiter     Limiter
	transcripts TranscriptStore
	guard       rbac.Guard
	validate    *validator.Validate
}

// NewHandler builds Handler instance. transcripts may be nil when retention
// is disabled.
func NewHandler(logger *slog.Logger, assistant Assistant, limiter Limiter, transcripts TranscriptStore, guard rbac.Guard) *Handler {
	return &Handler{
		logger:      logger,
		assistant:   assistant,
		limiter:     limiter,
		transcripts: transcripts,
		guard:       guard,
		validate:    validator.New(),
	}
}

// MountRoutes registers chat routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/chat", h.send)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermChatUse)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SendMessageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "message and userId are required")
		return
	}
	// The body must speak for the authenticated user, not someone else.
	if req.UserID != actor.UserID {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "userId does not match the authenticated user")
		return
	}

	allowed, remaining, resetAt := h.limiter.Check(actor.UserID)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(messageRateLimit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !allowed {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests",
			"message limit reached, wait a moment before retrying")
		return
	}

	reply, err := h.assistant.Send(r.Context(), Message{
		ChatInput: req.Message,
		UserID:    actor.UserID,
		SessionID: req.SessionID,
		UserEmail: actor.Email,
	})
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			h.logger.Error("assistant webhook", slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "Upstream Error",
				"could not process the message, try again")
			return
		}
		h.logger.Error("send chat message", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if h.transcripts != nil {
		// Retention is best effort, a failed insert must not lose the reply.
		if err := h.transcripts.Insert(r.Context(), Transcript{
			UserID:    actor.UserID,
			SessionID: req.SessionID,
			Message:   req.Message,
			Reply:     reply,
			CreatedAt: time.Now(),
		}); err != nil {
			h.logger.Warn("store chat transcript", slog.Any("error", err))
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply)
}
