package categories

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

const entityName = "categories"

// Repository provides persistence for species categories. Categories are a
// shared collection: every authenticated user reads and writes the same set.
type Repository struct {
	db *gorm.DB
}

func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// List returns every category ordered case-insensitively by name. Ties keep
// insertion order.
func (r *Repository) List(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.WrapStore(err, "list", entityName)
	}
	sortByName(rows)
	return rows, nil
}

// FindByID loads a single category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.WrapStore(err, "get", entityName)
	}
	return &row, nil
}

// Create inserts a category and returns the persisted row.
func (r *Repository) Create(ctx context.Context, row *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.WrapStore(err, "create", entityName)
	}
	return row, nil
}

// Update applies a partial patch to the category. Nil-valued entries mark
// absent fields and are stripped before the write; an empty patch is a no-op.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) error {
	clean := db.StripAbsent(patch)
	delete(clean, "id")
	if len(clean) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Updates(clean).Error
	if err != nil {
		return pkgerrors.WrapStore(err, "update", entityName)
	}
	return nil
}

// Delete removes a category. Deleting an id that does not exist is a no-op.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Category{}).Error
	if err != nil {
		return pkgerrors.WrapStore(err, "delete", entityName)
	}
	return nil
}

func sortByName(rows []models.Category) {
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
}
