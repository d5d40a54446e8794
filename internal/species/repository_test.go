package species

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
)

func setupSpeciesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(&models.Species{}, &models.Category{}))
	return gdb
}

func seedSpecies(t *testing.T, repo *Repository, ownerID uuid.UUID, name string, created time.Time) *models.Species {
	t.Helper()

	row, err := repo.Create(context.Background(), &models.Species{
		OwnerID:    ownerID,
		Name:       name,
		CategoryID: uuid.New(),
		Price:      decimal.NewFromInt(10),
		CreatedAt:  created,
		UpdatedAt:  created,
	})
	require.NoError(t, err)
	return row
}

func TestListSortsByNameCaseInsensitive(t *testing.T) {
	repo := NewRepository(setupSpeciesTestDB(t))
	owner := uuid.New()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	seedSpecies(t, repo, owner, "zebra spider", base)
	seedSpecies(t, repo, owner, "Ant colony", base.Add(time.Minute))
	seedSpecies(t, repo, owner, "beetle", base.Add(2*time.Minute))

	rows, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Ant colony", rows[0].Name)
	require.Equal(t, "beetle", rows[1].Name)
	require.Equal(t, "zebra spider", rows[2].Name)
}

func TestListTiesKeepInsertionOrder(t *testing.T) {
	repo := NewRepository(setupSpeciesTestDB(t))
	owner := uuid.New()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	first := seedSpecies(t, repo, owner, "Mantis", base)
	second := seedSpecies(t, repo, owner, "mantis", base.Add(time.Hour))

	rows, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, first.ID, rows[0].ID)
	require.Equal(t, second.ID, rows[1].ID)
}

func TestListScopedToOwner(t *testing.T) {
	repo := NewRepository(setupSpeciesTestDB(t))
	owner := uuid.New()
	other := uuid.New()
	now := time.Now().UTC()

	seedSpecies(t, repo, owner, "mine", now)
	seedSpecies(t, repo, other, "theirs", now)

	rows, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "mine", rows[0].Name)
}

func TestUpdateStripsAbsentFields(t *testing.T) {
	repo := NewRepository(setupSpeciesTestDB(t))
	owner := uuid.New()
	temp := 24.5
	row, err := repo.Create(context.Background(), &models.Species{
		OwnerID:        owner,
		Name:           "Jumping spider",
		CategoryID:     uuid.New(),
		TemperatureMin: &temp,
		Price:          decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	err = repo.Update(context.Background(), row.ID, map[string]any{
		"name":            "Jumping spider v2",
		"temperature_min": nil,
	})
	require.NoError(t, err)

	got, err := repo.FindByID(context.Background(), row.ID)
	require.NoError(t, err)
	require.Equal(t, "Jumping spider v2", got.Name)
	require.NotNil(t, got.TemperatureMin)
	require.Equal(t, temp, *got.TemperatureMin)
}

func TestUpdateNeverPatchesIdentity(t *testing.T) {
	repo := NewRepository(setupSpeciesTestDB(t))
	owner := uuid.New()
	row := seedSpecies(t, repo, owner, "Isopod", time.Now().UTC())

	err := repo.Update(context.Background(), row.ID, map[string]any{
		"owner_id": uuid.New(),
		"name":     "Isopod colony",
	})
	require.NoError(t, err)

	got, err := repo.FindByID(context.Background(), row.ID)
	require.NoError(t, err)
	require.Equal(t, owner, got.OwnerID)
	require.Equal(t, "Isopod colony", got.Name)
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := NewRepository(setupSpeciesTestDB(t))
	owner := uuid.New()
	row := seedSpecies(t, repo, owner, "Stick insect", time.Now().UTC())

	require.NoError(t, repo.Delete(context.Background(), row.ID))
	require.NoError(t, repo.Delete(context.Background(), row.ID))

	rows, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestFindByIDNotFound(t *testing.T) {
	repo := NewRepository(setupSpeciesTestDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
