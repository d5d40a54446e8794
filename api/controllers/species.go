package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkowalczyk/terrastock-backend/api/middleware"
	"github.com/mkowalczyk/terrastock-backend/api/responses"
	"github.com/mkowalczyk/terrastock-backend/api/validators"
	"github.com/mkowalczyk/terrastock-backend/internal/filter"
	speciessvc "github.com/mkowalczyk/terrastock-backend/internal/species"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
)

func ownerFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	ownerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return ownerID, nil
}

func speciesIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "speciesId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid species id")
	}
	return id, nil
}

// ListSpecies returns the caller's snapshot, optionally narrowed by query
// criteria. Filtering happens after the full snapshot loads; an empty result
// under active criteria is still a success.
func ListSpecies(svc *speciessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		criteria := filter.Criteria{
			SearchTerm:  q.Get("search"),
			CategoryID:  q.Get("category_id"),
			PriceMin:    q.Get("price_min"),
			PriceMax:    q.Get("price_max"),
			InStockOnly: q.Get("in_stock") == "true",
		}
		if !criteria.IsZero() {
			rows = filter.Apply(rows, criteria)
		}

		responses.WriteSuccess(w, speciessvc.ToDTOs(rows))
	}
}

// CreateSpecies stores a new record in the caller's scope.
func CreateSpecies(svc *speciessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload speciessvc.SpeciesInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Create(r.Context(), ownerID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, speciessvc.ToDTO(*row))
	}
}

// UpdateSpecies replaces a record's writable fields from a full submission.
func UpdateSpecies(svc *speciessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := speciesIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload speciessvc.SpeciesInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Update(r.Context(), ownerID, id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, speciessvc.ToDTO(*row))
	}
}

// SetSpeciesStock flips availability only.
func SetSpeciesStock(svc *speciessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := speciesIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload speciessvc.StockInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.SetStockStatus(r.Context(), ownerID, id, payload.InStock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, speciessvc.ToDTO(*row))
	}
}

// DeleteSpecies removes a record. Retried deletes succeed.
func DeleteSpecies(svc *speciessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := speciesIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), ownerID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
