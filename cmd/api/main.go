package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkowalczyk/terrastock-backend/api/controllers"
	"github.com/mkowalczyk/terrastock-backend/api/routes"
	authsvc "github.com/mkowalczyk/terrastock-backend/internal/auth"
	categoriessvc "github.com/mkowalczyk/terrastock-backend/internal/categories"
	"github.com/mkowalczyk/terrastock-backend/internal/localstore"
	speciessvc "github.com/mkowalczyk/terrastock-backend/internal/species"
	"github.com/mkowalczyk/terrastock-backend/internal/users"
	"github.com/mkowalczyk/terrastock-backend/pkg/auth/session"
	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/config"
	"github.com/mkowalczyk/terrastock-backend/pkg/db"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/metrics"
	"github.com/mkowalczyk/terrastock-backend/pkg/migrate"
	"github.com/mkowalczyk/terrastock-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var handler http.Handler
	if cfg.FeatureFlags.LocalMode {
		// Legacy single-blob deployment: no document store, no auth.
		localBroker := broker.NewMemoryBroker()
		store := localstore.NewStore(redisClient, localBroker)
		handler = routes.NewLocalRouter(cfg, logg, store)
		logg.Warn(context.Background(), "running in local fallback mode: unscoped blob storage, no live streams")
	} else {
		handler = buildHandler(cfg, logg, redisClient)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildHandler(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client) http.Handler {
	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	changeBroker := broker.NewRedisBroker(redisClient)

	authService := authsvc.NewService(authsvc.ServiceParams{
		Users:    users.NewRepository(dbClient.DB()),
		Sessions: sessionManager,
		JWTCfg:   cfg.JWT,
		Logger:   logg,
	})
	speciesService := speciessvc.NewService(speciessvc.ServiceParams{
		Repo:    speciessvc.NewRepository(dbClient.DB()),
		Broker:  changeBroker,
		Logger:  logg,
		Metrics: syncMetrics,
	})
	categoryService := categoriessvc.NewService(categoriessvc.ServiceParams{
		Repo:    categoriessvc.NewRepository(dbClient.DB()),
		Broker:  changeBroker,
		Logger:  logg,
		Metrics: syncMetrics,
	})

	return routes.NewRouter(routes.Deps{
		Cfg:         cfg,
		Logger:      logg,
		DBPinger:    dbClient,
		RedisClient: redisClient,
		Sessions:    sessionManager,
		AuthSvc:     authService,
		SpeciesSvc:  speciesService,
		CategorySvc: categoryService,
		Stream: controllers.StreamDeps{
			Broker:  changeBroker,
			Logger:  logg,
			Metrics: syncMetrics,
			Sync:    cfg.Sync,
		},
	})
}
