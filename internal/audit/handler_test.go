package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

type allowAllGuard struct{}

func (allowAllGuard) Authorize(ctx context.Context, _ string) (*shared.Identity, error) {
	if identity := shared.IdentityFromContext(ctx); identity != nil {
		return identity, nil
	}
	return nil, httpx.ErrUnauthorized
}

func newAuditRouter(store ActivityStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(store), allowAllGuard{})
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func getAudit(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{UserID: "admin-1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestExportCSVCoversEveryMatchingEntry(t *testing.T) {
	all := make([]Entry, 250)
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := range all {
		all[i] = Entry{
			ID:        fmt.Sprintf("e%03d", i),
			ActorID:   "u1",
			Action:    ActionOrderCreated,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	store := &stubActivityStore{all: all}
	router := newAuditRouter(store)

	rr := getAudit(t, router, "/audit/export.csv?user_id=u1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}

	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if got := len(records) - 1; got != 250 {
		t.Fatalf("data rows = %d, want all 250 entries", got)
	}
}

func TestExportCSVRequiresUserID(t *testing.T) {
	router := newAuditRouter(&stubActivityStore{})

	rr := getAudit(t, router, "/audit/export.csv")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
