package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aguatrestorres/backoffice/internal/audit"
	"github.com/aguatrestorres/backoffice/internal/auth"
	"github.com/aguatrestorres/backoffice/internal/chat"
	"github.com/aguatrestorres/backoffice/internal/customers"
	"github.com/aguatrestorres/backoffice/internal/insights"
	"github.com/aguatrestorres/backoffice/internal/observability"
	"github.com/aguatrestorres/backoffice/internal/orders"
	"github.com/aguatrestorres/backoffice/internal/products"
	"github.com/aguatrestorres/backoffice/internal/rbac"
	"github.com/aguatrestorres/backoffice/internal/routing"
	"github.com/aguatrestorres/backoffice/internal/users"
	"github.com/aguatrestorres/backoffice/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Verifier         auth.Verifier
	AuthHandler      *auth.Handler
	RBACHandler      *rbac.Handler
	UsersHandler     *users.Handler
	CustomersHandler *customers.Handler
	ProductsHandler  *products.Handler
	OrdersHandler    *orders.Handler
	RoutingHandler   *routing.Handler
	ChatHandler      *chat.Handler
	InsightsHandler  *insights.Handler
	AuditHandler     *audit.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with back-office defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountPublicRoutes(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(params.Verifier, params.Logger))

			if params.AuthHandler != nil {
				params.AuthHandler.MountRoutes(r)
			}
			if params.RBACHandler != nil {
				params.RBACHandler.MountRoutes(r)
			}
			if params.UsersHandler != nil {
				params.UsersHandler.MountRoutes(r)
			}
			if params.CustomersHandler != nil {
				params.CustomersHandler.MountRoutes(r)
			}
			if params.ProductsHandler != nil {
				params.ProductsHandler.MountRoutes(r)
			}
			if params.OrdersHandler != nil {
				params.OrdersHandler.MountRoutes(r)
			}
			if params.RoutingHandler != nil {
				params.RoutingHandler.MountRoutes(r)
			}
			if params.ChatHandler != nil {
				params.ChatHandler.MountRoutes(r)
			}
			if params.InsightsHandler != nil {
				params.InsightsHandler.MountRoutes(r)
			}
			if params.AuditHandler != nil {
				params.AuditHandler.MountRoutes(r)
			}
			if params.JobsHandler != nil {
				r.Route("/jobs", params.JobsHandler.MountRoutes)
			}
		})
	})

	return r
}
