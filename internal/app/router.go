package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/fleetgrid/fleetgrid/internal/audit/http"
	"github.com/fleetgrid/fleetgrid/internal/auth"
	"github.com/fleetgrid/fleetgrid/internal/machinery"
	"github.com/fleetgrid/fleetgrid/internal/observability"
	"github.com/fleetgrid/fleetgrid/internal/permissions"
	"github.com/fleetgrid/fleetgrid/internal/shared"
	"github.com/fleetgrid/fleetgrid/internal/tenants"
	"github.com/fleetgrid/fleetgrid/internal/users"
	"github.com/fleetgrid/fleetgrid/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	AuthHandler        *auth.Handler
	TenantsHandler     *tenants.Handler
	UsersHandler       *users.Handler
	MachineryHandler   *machinery.Handler
	PermissionsHandler *permissions.Handler
	AuditHandler       *audithttp.Handler
	JobHandler         *jobs.Handler
	PermMiddleware     permissions.Middleware
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(gr chi.Router) {
		gr.Use(params.PermMiddleware.RequireAuthenticated)

		if params.TenantsHandler != nil {
			gr.Route("/tenants", func(tr chi.Router) {
				params.TenantsHandler.MountRoutes(tr)

				tr.Route("/{tenantID}", func(sr chi.Router) {
					if params.UsersHandler != nil {
						sr.Route("/users", params.UsersHandler.MountRoutes)
					}
					if params.MachineryHandler != nil {
						sr.Group(func(mr chi.Router) {
							mr.Use(params.PermMiddleware.RequireAnyAccess())
							mr.Route("/machinery", params.MachineryHandler.MountRoutes)
						})
					}
					if params.PermissionsHandler != nil {
						sr.Route("/permissions", params.PermissionsHandler.MountRoutes)
					}
				})
			})
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(gr)
		}
		if params.JobHandler != nil {
			gr.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
