package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-esw/meridian-esw/internal/crm/leads"
	"github.com/meridian-esw/meridian-esw/internal/crm/projects"
	"github.com/meridian-esw/meridian-esw/internal/crm/quotations"
	"github.com/meridian-esw/meridian-esw/internal/crm/revisions"
	"github.com/meridian-esw/meridian-esw/internal/crm/sitevisits"
	"github.com/meridian-esw/meridian-esw/internal/crm/variations"
	"github.com/meridian-esw/meridian-esw/internal/identity"
	"github.com/meridian-esw/meridian-esw/internal/observability"
	"github.com/meridian-esw/meridian-esw/internal/shared"
	"github.com/meridian-esw/meridian-esw/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Identity       *identity.Service

	LeadsHandler      *leads.Handler
	QuotationsHandler *quotations.Handler
	RevisionsHandler  *revisions.Handler
	ProjectsHandler   *projects.Handler
	VariationsHandler *variations.Handler
	SiteVisitsHandler *sitevisits.Handler
	JobHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the API surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Identity:       params.Identity,
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

	r.Route("/api/v1", func(r chi.Router) {
		if params.LeadsHandler != nil {
			params.LeadsHandler.MountRoutes(r)
		}
		if params.QuotationsHandler != nil {
			params.QuotationsHandler.MountRoutes(r)
		}
		if params.RevisionsHandler != nil {
			params.RevisionsHandler.MountRoutes(r)
		}
		if params.ProjectsHandler != nil {
			params.ProjectsHandler.MountRoutes(r)
		}
		if params.VariationsHandler != nil {
			params.VariationsHandler.MountRoutes(r)
		}
		if params.SiteVisitsHandler != nil {
			params.SiteVisitsHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
