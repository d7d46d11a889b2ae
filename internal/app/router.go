package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ekahanny/souvenir-tracking-be/internal/activities"
	"github.com/ekahanny/souvenir-tracking-be/internal/auth"
	"github.com/ekahanny/souvenir-tracking-be/internal/categories"
	"github.com/ekahanny/souvenir-tracking-be/internal/dashboard"
	"github.com/ekahanny/souvenir-tracking-be/internal/products"
	"github.com/ekahanny/souvenir-tracking-be/internal/stock"
	"github.com/ekahanny/souvenir-tracking-be/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthService       *auth.Service
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	ActivitiesHandler *activities.Handler
	StockHandler      *stock.Handler
	DashboardHandler  *dashboard.Handler
}

// NewRouter constructs the chi router. Auth endpoints are public; every
// other route requires a bearer token.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
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
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(params.AuthService.RequireAuth)
				params.AuthHandler.MountProtectedRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(params.AuthService.RequireAuth)
			params.UsersHandler.MountRoutes(r)
			params.CategoriesHandler.MountRoutes(r)
			params.ProductsHandler.MountRoutes(r)
			params.ActivitiesHandler.MountRoutes(r)
			params.StockHandler.MountRoutes(r)
			params.StockHandler.MountLotRoutes(r)
			params.DashboardHandler.MountRoutes(r)
		})
	})

	return r
}
