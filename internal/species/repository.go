package species

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mkowalczyk/terrastock-backend/pkg/db"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"gorm.io/gorm"
)

const entityName = "species"

// Repository provides scoped persistence for species records. Every read is
// constrained to a single owner; records from other owners are never visible.
type Repository struct {
	db *gorm.DB
}

func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// List returns the owner's full species collection sorted case-insensitively
// by name. Ties keep insertion order, so two records sharing a name come back
// oldest first.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID) ([]models.Species, error) {
	var rows []models.Species
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.WrapStore(err, "list", entityName)
	}
	sortByName(rows)
	return rows, nil
}

// FindByID loads a single species without scope checks; callers enforce
// ownership before acting on the result.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Species, error) {
	var row models.Species
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "species not found")
		}
		return nil, pkgerrors.WrapStore(err, "get", entityName)
	}
	return &row, nil
}

// Create inserts a species row and returns the persisted model.
func (r *Repository) Create(ctx context.Context, row *models.Species) (*models.Species, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.WrapStore(err, "create", entityName)
	}
	return row, nil
}

// Update applies a partial patch. Nil-valued entries mark absent fields and
// are stripped before the write: a field missing from the patch keeps its
// stored value. Identity and scope columns are never patchable.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) error {
	clean := db.StripAbsent(patch)
	delete(clean, "id")
	delete(clean, "owner_id")
	if len(clean) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Species{}).
		Where("id = ?", id).
		Updates(clean).Error
	if err != nil {
		return pkgerrors.WrapStore(err, "update", entityName)
	}
	return nil
}

// Delete removes a species row. Deleting an id that does not exist is a no-op.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Species{}).Error
	if err != nil {
		return pkgerrors.WrapStore(err, "delete", entityName)
	}
	return nil
}

func sortByName(rows []models.Species) {
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
}
