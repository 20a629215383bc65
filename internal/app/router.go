package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sourcedesk/sourcedesk/internal/auth"
	"github.com/sourcedesk/sourcedesk/internal/clients"
	"github.com/sourcedesk/sourcedesk/internal/observability"
	"github.com/sourcedesk/sourcedesk/internal/products"
	"github.com/sourcedesk/sourcedesk/internal/quotation"
	"github.com/sourcedesk/sourcedesk/internal/settings"
	"github.com/sourcedesk/sourcedesk/internal/sharing"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Verifier         *auth.Verifier
	QuotationHandler *quotation.Handler
	SettingsHandler  *settings.Handler
	ClientsHandler   *clients.Handler
	ProductsHandler  *products.Handler
	SharingHandler   *sharing.Handler
	Pool             *pgxpool.Pool
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router. Everything under /api/v1 requires a
// bearer token; the public share surface and operational endpoints do not.
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
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Warn("healthz db ping", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	if params.SharingHandler != nil {
		params.SharingHandler.MountPublicRoutes(r)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(params.Verifier.Middleware)

		params.QuotationHandler.MountRoutes(r)
		params.SettingsHandler.MountRoutes(r)
		if params.ClientsHandler != nil {
			params.ClientsHandler.MountRoutes(r)
		}
		if params.ProductsHandler != nil {
			params.ProductsHandler.MountRoutes(r)
		}
		if params.SharingHandler != nil {
			params.SharingHandler.MountRoutes(r)
		}
	})

	return r
}
