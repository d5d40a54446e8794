package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkowalczyk/terrastock-backend/api/controllers"
	"github.com/mkowalczyk/terrastock-backend/api/middleware"
	authsvc "github.com/mkowalczyk/terrastock-backend/internal/auth"
	categoriessvc "github.com/mkowalczyk/terrastock-backend/internal/categories"
	"github.com/mkowalczyk/terrastock-backend/internal/localstore"
	speciessvc "github.com/mkowalczyk/terrastock-backend/internal/species"
	"github.com/mkowalczyk/terrastock-backend/pkg/auth/session"
	"github.com/mkowalczyk/terrastock-backend/pkg/config"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/redis"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Cfg    *config.Config
	Logger *logger.Logger

	DBPinger    controllers.Pinger
	RedisClient *redis.Client

	Sessions    *session.Manager
	AuthSvc     *authsvc.Service
	SpeciesSvc  *speciessvc.Service
	CategorySvc *categoriessvc.Service

	Stream controllers.StreamDeps
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Cfg
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DBPinger,
			"redis": deps.RedisClient,
		}))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RedisClient, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthSvc, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(deps.AuthSvc, logg))
			r.Get("/me", controllers.AuthMe(logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/species", func(r chi.Router) {
			r.Get("/", controllers.ListSpecies(deps.SpeciesSvc, logg))
			r.Post("/", controllers.CreateSpecies(deps.SpeciesSvc, logg))
			r.Get("/stream", controllers.StreamSpecies(deps.SpeciesSvc, deps.Stream))
			r.Put("/{speciesId}", controllers.UpdateSpecies(deps.SpeciesSvc, logg))
			r.Patch("/{speciesId}/stock", controllers.SetSpeciesStock(deps.SpeciesSvc, logg))
			r.Delete("/{speciesId}", controllers.DeleteSpecies(deps.SpeciesSvc, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(deps.CategorySvc, logg))
			r.Post("/", controllers.CreateCategory(deps.CategorySvc, logg))
			r.Get("/stream", controllers.StreamCategories(deps.CategorySvc, deps.Stream))
			r.Put("/{categoryId}", controllers.UpdateCategory(deps.CategorySvc, logg))
			r.Delete("/{categoryId}", controllers.DeleteCategory(deps.CategorySvc, logg))
		})
	})

	return r
}

// NewLocalRouter serves the legacy single-blob deployment. No authentication,
// no categories, no streams.
func NewLocalRouter(cfg *config.Config, logg *logger.Logger, store *localstore.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/health/live", controllers.HealthLive(cfg))

	r.Route("/api/v1/local/species", func(r chi.Router) {
		r.Get("/", controllers.LocalListSpecies(store, logg))
		r.Post("/", controllers.LocalCreateSpecies(store, logg))
		r.Put("/{speciesId}", controllers.LocalUpdateSpecies(store, logg))
		r.Patch("/{speciesId}/stock", controllers.LocalSetSpeciesStock(store, logg))
		r.Delete("/{speciesId}", controllers.LocalDeleteSpecies(store, logg))
	})

	return r
}
