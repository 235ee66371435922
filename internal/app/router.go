package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fundflow/fundflow/internal/auth"
	"github.com/fundflow/fundflow/internal/entries"
	"github.com/fundflow/fundflow/internal/observability"
	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/reports"
	"github.com/fundflow/fundflow/internal/shared"
	"github.com/fundflow/fundflow/internal/workspaces"
	"github.com/fundflow/fundflow/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Guard          permissions.Middleware

	AuthHandler        *auth.Handler
	PermissionsHandler *permissions.Handler
	WorkspacesHandler  *workspaces.Handler
	EntriesHandler     *entries.Handler
	ReportsHandler     *reports.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with fundflow defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		r.Group(func(r chi.Router) {
			r.Use(params.Guard.Authenticate)
			if params.AuthHandler != nil {
				r.Post("/logout", params.AuthHandler.Logout)
				r.Get("/session", params.AuthHandler.Current)
			} else {
				r.Post("/logout", logoutHandler(params.SessionManager))
			}
			if params.PermissionsHandler != nil {
				params.PermissionsHandler.MountRoutes(r)
			}
			if params.WorkspacesHandler != nil {
				params.WorkspacesHandler.MountRoutes(r)
			}
			if params.EntriesHandler != nil {
				params.EntriesHandler.MountRoutes(r)
			}
			if params.ReportsHandler != nil {
				params.ReportsHandler.MountRoutes(r)
			}
		})
	})

	return r
}

func logoutHandler(sessions *shared.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions != nil {
			sessions.Destroy(shared.SessionFromContext(r.Context()))
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
