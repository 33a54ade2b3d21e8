package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/harborstay/harborstay/internal/bookings"
	"github.com/harborstay/harborstay/internal/identity"
	"github.com/harborstay/harborstay/internal/listings"
	"github.com/harborstay/harborstay/internal/policy"
	"github.com/harborstay/harborstay/internal/roles"
	"github.com/harborstay/harborstay/internal/shared"
	"github.com/harborstay/harborstay/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler     *identity.Handler
	ListingsHandler *listings.Handler
	BookingsHandler *bookings.Handler
	RolesHandler    *roles.Handler
	JobHandler      *jobs.Handler

	PolicyMiddleware policy.Middleware
}

// NewRouter constructs the chi.Router with HarborStay defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.PolicyMiddleware.WithPrincipal)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/listings", params.ListingsHandler.MountRoutes)
	r.Route("/bookings", params.BookingsHandler.MountRoutes)
	if params.RolesHandler != nil {
		r.Route("/admin", params.RolesHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
