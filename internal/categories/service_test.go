package categories

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/metrics"
)

func setupCategoryService(t *testing.T) (*Service, *broker.MemoryBroker) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Category{}))

	b := broker.NewMemoryBroker()
	svc := NewService(ServiceParams{
		Repo:    NewRepository(gdb),
		Broker:  b,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Metrics: metrics.NewSyncMetrics(prometheus.NewRegistry()),
	})
	return svc, b
}

func TestCreateRequiresName(t *testing.T) {
	svc, _ := setupCategoryService(t)

	_, err := svc.Create(context.Background(), CategoryInput{Name: "   "})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreatePublishesSharedTopic(t *testing.T) {
	svc, b := setupCategoryService(t)

	sub, err := b.Subscribe(context.Background(), broker.CategoriesTopic())
	require.NoError(t, err)
	defer sub.Unsubscribe()

	_, err = svc.Create(context.Background(), CategoryInput{Name: "Arachnids"})
	require.NoError(t, err)

	select {
	case <-sub.Notifications():
	default:
		t.Fatal("expected a change notification after create")
	}
}

func TestListSortsByName(t *testing.T) {
	svc, _ := setupCategoryService(t)

	for _, name := range []string{"spiders", "Ants", "beetles"} {
		_, err := svc.Create(context.Background(), CategoryInput{Name: name})
		require.NoError(t, err)
	}

	rows, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Ants", rows[0].Name)
	require.Equal(t, "beetles", rows[1].Name)
	require.Equal(t, "spiders", rows[2].Name)
}

func TestUpdateKeepsColorWhenAbsent(t *testing.T) {
	svc, _ := setupCategoryService(t)

	color := "#22cc88"
	row, err := svc.Create(context.Background(), CategoryInput{Name: "Mantids", Color: &color})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), row.ID, CategoryInput{Name: "Mantises"})
	require.NoError(t, err)
	require.Equal(t, "Mantises", updated.Name)
	require.NotNil(t, updated.Color)
	require.Equal(t, color, *updated.Color)
	require.True(t, updated.UpdatedAt.After(row.UpdatedAt) || updated.UpdatedAt.Equal(row.UpdatedAt))
}

func TestUpdateUnknownCategory(t *testing.T) {
	svc, _ := setupCategoryService(t)

	_, err := svc.Update(context.Background(), uuid.New(), CategoryInput{Name: "Ghosts"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteUnknownCategoryIsNoOp(t *testing.T) {
	svc, _ := setupCategoryService(t)

	require.NoError(t, svc.Delete(context.Background(), uuid.New()))
}
