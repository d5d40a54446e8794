package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkowalczyk/terrastock-backend/api/responses"
	"github.com/mkowalczyk/terrastock-backend/api/validators"
	"github.com/mkowalczyk/terrastock-backend/internal/localstore"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
)

// The local fallback deployment serves the legacy single-blob layout: one
// shared collection, flat category labels, no authentication. These handlers
// exist only behind the local-mode flag.

type localSpeciesRequest struct {
	Name          string                     `json:"name" validate:"required,min=1,max=200"`
	Type          string                     `json:"type" validate:"required"`
	Temperature   string                     `json:"temperature"`
	NestHumidity  string                     `json:"nestHumidity"`
	ArenaHumidity string                     `json:"arenaHumidity"`
	Changes       []localChangeEntryRequest  `json:"changes" validate:"dive"`
	Behavior      string                     `json:"behavior"`
	Description   string                     `json:"description"`
	Price         float64                    `json:"price" validate:"gte=0"`
	InStock       bool                       `json:"inStock"`
}

type localChangeEntryRequest struct {
	Date        string `json:"date" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=feeding temperature other"`
	Description string `json:"description"`
}

func (r localChangeEntryRequest) toModel() models.ChangeEntry {
	return models.ChangeEntry{
		Date:        r.Date,
		Type:        models.ChangeEntryType(r.Type),
		Description: r.Description,
	}
}

func (r localSpeciesRequest) toModel() localstore.LocalSpecies {
	item := localstore.LocalSpecies{
		Name:          r.Name,
		Type:          r.Type,
		Temperature:   r.Temperature,
		NestHumidity:  r.NestHumidity,
		ArenaHumidity: r.ArenaHumidity,
		Behavior:      r.Behavior,
		Description:   r.Description,
		Price:         r.Price,
		InStock:       r.InStock,
	}
	for _, change := range r.Changes {
		item.Changes = append(item.Changes, change.toModel())
	}
	return item
}

func LocalListSpecies(store *localstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.All(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func LocalCreateSpecies(store *localstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload localSpeciesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := store.Add(r.Context(), payload.toModel())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func LocalUpdateSpecies(store *localstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload localSpeciesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := store.Update(r.Context(), chi.URLParam(r, "speciesId"), payload.toModel())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func LocalSetSpeciesStock(store *localstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			InStock bool `json:"inStock"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := store.SetStockStatus(r.Context(), chi.URLParam(r, "speciesId"), payload.InStock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func LocalDeleteSpecies(store *localstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "speciesId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
