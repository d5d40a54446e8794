package controllers

import (
	"context"
	"net/http"

	"github.com/mkowalczyk/terrastock-backend/api/responses"
	"github.com/mkowalczyk/terrastock-backend/pkg/config"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
)

const envHeader = "X-TerraStock-Env"

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the store and the notification backend. A nil pinger is
// treated as not configured and skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		for name, pinger := range pingers {
			if pinger == nil {
				checks[name] = "skipped"
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				checks[name] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").
						WithDetails(map[string]any{"dependency": name}))
				return
			}
			checks[name] = "up"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
