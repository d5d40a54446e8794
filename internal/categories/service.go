package categories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/metrics"
)

// Service implements the category operations. Every successful mutation
// publishes on the shared categories topic so live snapshots reload.
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

// List returns the full category snapshot, name-sorted.
func (s *Service) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.IncStoreOp("categories", "list")
	return rows, nil
}

// Create validates and stores a new category.
func (s *Service) Create(ctx context.Context, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	now := s.now().UTC()
	row := &models.Category{
		Name:      name,
		Color:     input.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, err
	}
	s.metrics.IncStoreOp("categories", "create")
	s.publish(ctx)
	return created, nil
}

// Update replaces the writable fields of a category. A nil color keeps the
// stored color.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	patch := map[string]any{
		"name":       name,
		"updated_at": s.now().UTC(),
	}
	if input.Color != nil {
		patch["color"] = *input.Color
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.metrics.IncStoreOp("categories", "update")
	s.publish(ctx)
	return s.repo.FindByID(ctx, id)
}

// Delete removes a category. Species keep their category_id; readers render a
// dangling reference with an unknown-category fallback.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.IncStoreOp("categories", "delete")
	s.publish(ctx)
	return nil
}

func (s *Service) publish(ctx context.Context) {
	if err := s.broker.Publish(ctx, broker.CategoriesTopic()); err != nil {
		s.logg.Warn(ctx, "publishing categories change failed: "+err.Error())
	}
}
