package species

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/metrics"
)

// Service implements the species operations. Reads and writes are scoped to
// the owning user; every successful mutation publishes on the owner's species
// topic so live snapshots reload. Local state is never mutated optimistically,
// subscribers only see what the store confirmed.
type Service struct {
	repo    *Repository
	broker  broker.Broker
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	now     func() time.Time
}

type ServiceParams struct {
	Repo    *Repository
	Broker  broker.Broker
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
}

func NewService(p ServiceParams) *Service {
	return &Service{
		repo:    p.Repo,
		broker:  p.Broker,
		logg:    p.Logger,
		metrics: p.Metrics,
		now:     time.Now,
	}
}

// List returns the owner's full snapshot, name-sorted.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]models.Species, error) {
	rows, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncStoreOp("species", "list")
	return rows, nil
}

// Create validates, normalizes and stores a new record for the owner.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input SpeciesInput) (*models.Species, error) {
	fields, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	categoryID, err := uuid.Parse(fields.CategoryID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must be a valid id")
	}

	now := s.now().UTC()
	row := &models.Species{
		OwnerID:          ownerID,
		Name:             fields.Name,
		CategoryID:       categoryID,
		TemperatureMin:   fields.TemperatureMin,
		TemperatureMax:   fields.TemperatureMax,
		NestHumidityMin:  fields.NestHumidityMin,
		NestHumidityMax:  fields.NestHumidityMax,
		ArenaHumidityMin: fields.ArenaHumidityMin,
		ArenaHumidityMax: fields.ArenaHumidityMax,
		Behavior:         fields.Behavior,
		Description:      fields.Description,
		Price:            fields.Price,
		InStock:          fields.InStock,
		ChangeLog:        fields.ChangeLog,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, err
	}
	s.metrics.IncStoreOp("species", "create")
	s.publish(ctx, ownerID)
	return created, nil
}

// Update replaces a record's writable fields from a full submission. Absent
// environment fields are passed as nil markers so the adapter strips them and
// the stored values survive; they cannot be cleared through this path.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, input SpeciesInput) (*models.Species, error) {
	if _, err := s.authorize(ctx, ownerID, id); err != nil {
		return nil, err
	}
	fields, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	categoryID, err := uuid.Parse(fields.CategoryID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must be a valid id")
	}

	patch := map[string]any{
		"name":               fields.Name,
		"category_id":        categoryID,
		"temperature_min":    asPatchValue(fields.TemperatureMin),
		"temperature_max":    asPatchValue(fields.TemperatureMax),
		"nest_humidity_min":  asPatchValue(fields.NestHumidityMin),
		"nest_humidity_max":  asPatchValue(fields.NestHumidityMax),
		"arena_humidity_min": asPatchValue(fields.ArenaHumidityMin),
		"arena_humidity_max": asPatchValue(fields.ArenaHumidityMax),
		"behavior":           fields.Behavior,
		"description":        fields.Description,
		"price":              fields.Price,
		"in_stock":           fields.InStock,
		"change_log":         fields.ChangeLog,
		"updated_at":         s.now().UTC(),
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.metrics.IncStoreOp("species", "update")
	s.publish(ctx, ownerID)
	return s.repo.FindByID(ctx, id)
}

// SetStockStatus flips availability only, leaving the rest of the record
// untouched.
func (s *Service) SetStockStatus(ctx context.Context, ownerID, id uuid.UUID, inStock bool) (*models.Species, error) {
	if _, err := s.authorize(ctx, ownerID, id); err != nil {
		return nil, err
	}
	patch := map[string]any{
		"in_stock":   inStock,
		"updated_at": s.now().UTC(),
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.metrics.IncStoreOp("species", "update")
	s.publish(ctx, ownerID)
	return s.repo.FindByID(ctx, id)
}

// Delete removes a record. Deleting an id that no longer exists succeeds
// silently so retried deletes stay safe.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	if row.OwnerID != ownerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "species belongs to another user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.IncStoreOp("species", "delete")
	s.publish(ctx, ownerID)
	return nil
}

func (s *Service) authorize(ctx context.Context, ownerID, id uuid.UUID) (*models.Species, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "species belongs to another user")
	}
	return row, nil
}

func (s *Service) publish(ctx context.Context, ownerID uuid.UUID) {
	if err := s.broker.Publish(ctx, broker.SpeciesTopic(ownerID.String())); err != nil {
		s.logg.Warn(ctx, "publishing species change failed: "+err.Error())
	}
}

// asPatchValue widens an optional float to the patch's absent-marker form.
func asPatchValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
