package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mkowalczyk/terrastock-backend/api/responses"
	categoriessvc "github.com/mkowalczyk/terrastock-backend/internal/categories"
	speciessvc "github.com/mkowalczyk/terrastock-backend/internal/species"
	livesync "github.com/mkowalczyk/terrastock-backend/internal/sync"
	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/config"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/metrics"
)

// StreamDeps carries the shared plumbing every stream endpoint needs.
type StreamDeps struct {
	Broker  broker.Broker
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
	Sync    config.SyncConfig
}

// StreamSpecies serves the caller's species collection as server-sent events.
// Each event is the full snapshot; the stream opens with the initial load and
// pushes a replacement snapshot after every confirmed change. The syncer is
// bound to the connection: it starts when the client connects and stops when
// the client goes away.
func StreamSpecies(svc *speciessvc.Service, deps StreamDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), deps.Logger, w, err)
			return
		}

		syncer := livesync.New(livesync.Config[models.Species]{
			Entity: "species",
			Topic:  broker.SpeciesTopic(ownerID.String()),
			List: func(ctx context.Context) ([]models.Species, error) {
				return svc.List(ctx, ownerID)
			},
			Broker:        deps.Broker,
			Logger:        deps.Logger,
			Metrics:       deps.Metrics,
			ReloadTimeout: deps.Sync.ReloadTimeout,
			Buffer:        deps.Sync.SnapshotBuffer,
		})

		serveStream(w, r, deps, syncer, func(rows []models.Species) any {
			return speciessvc.ToDTOs(rows)
		})
	}
}

// StreamCategories serves the shared category collection as server-sent
// events.
func StreamCategories(svc *categoriessvc.Service, deps StreamDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		syncer := livesync.New(livesync.Config[models.Category]{
			Entity:        "categories",
			Topic:         broker.CategoriesTopic(),
			List:          svc.List,
			Broker:        deps.Broker,
			Logger:        deps.Logger,
			Metrics:       deps.Metrics,
			ReloadTimeout: deps.Sync.ReloadTimeout,
			Buffer:        deps.Sync.SnapshotBuffer,
		})

		serveStream(w, r, deps, syncer, func(rows []models.Category) any {
			return categoriessvc.ToDTOs(rows)
		})
	}
}

// serveStream runs the snapshot/heartbeat loop for one connection.
func serveStream[T any](w http.ResponseWriter, r *http.Request, deps StreamDeps, syncer *livesync.Syncer[T], render func([]T) any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		responses.WriteError(r.Context(), deps.Logger, w,
			pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
		return
	}

	if err := syncer.Start(r.Context()); err != nil {
		responses.WriteError(r.Context(), deps.Logger, w, err)
		return
	}
	defer syncer.Stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, "snapshot", render(syncer.Snapshot()))
	flusher.Flush()

	heartbeat := time.NewTicker(deps.Sync.StreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case rows, open := <-syncer.Updates():
			if !open {
				return
			}
			writeEvent(w, "snapshot", render(rows))
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw)
}
