package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/auth"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/companies"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/labor"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/liquidations"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/observability"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/quotations"
	"github.com/idocstoreapp/cotizador-app-sub000/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthHandler         *auth.Handler
	CompaniesHandler    *companies.Handler
	QuotationsHandler   *quotations.Handler
	LaborHandler        *labor.Handler
	LiquidationsHandler *liquidations.Handler
	JobsHandler         *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
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

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthHandler.RequireAuth)
			params.CompaniesHandler.MountRoutes(r)
			params.QuotationsHandler.MountRoutes(r)
			params.LaborHandler.MountRoutes(r)
			params.LiquidationsHandler.MountRoutes(r)
		})
	})

	return r
}
