package controllers

import (
	"net/http"

	"github.com/mkowalczyk/terrastock-backend/api/middleware"
	"github.com/mkowalczyk/terrastock-backend/api/responses"
	"github.com/mkowalczyk/terrastock-backend/api/validators"
	authsvc "github.com/mkowalczyk/terrastock-backend/internal/auth"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
)

// AuthLogin verifies credentials and returns a bearer token plus the identity
// it scopes.
func AuthLogin(svc *authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the session behind the presented token. Runs behind the
// auth middleware, so the access id is always in context.
func AuthLogout(svc *authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthMe echoes the identity carried by the token, letting clients restore a
// session on reload.
func AuthMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"id":    middleware.UserIDFromContext(r.Context()),
			"email": middleware.EmailFromContext(r.Context()),
		})
	}
}
