package species

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/metrics"
)

func setupSpeciesService(t *testing.T) (*Service, *broker.MemoryBroker) {
	t.Helper()

	b := broker.NewMemoryBroker()
	svc := NewService(ServiceParams{
		Repo:    NewRepository(setupSpeciesTestDB(t)),
		Broker:  b,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Metrics: metrics.NewSyncMetrics(prometheus.NewRegistry()),
	})
	return svc, b
}

func validInput() SpeciesInput {
	return SpeciesInput{
		Name:       "Leafcutter ant",
		CategoryID: uuid.NewString(),
		Price:      "49.99",
		InStock:    true,
	}
}

func TestCreateNormalizesEnvironmentFields(t *testing.T) {
	svc, _ := setupSpeciesService(t)
	owner := uuid.New()

	input := validInput()
	input.TemperatureMin = " 21.5 "
	input.TemperatureMax = "28"
	input.NestHumidityMin = ""

	row, err := svc.Create(context.Background(), owner, input)
	require.NoError(t, err)

	require.NotNil(t, row.TemperatureMin)
	require.Equal(t, 21.5, *row.TemperatureMin)
	require.NotNil(t, row.TemperatureMax)
	require.Equal(t, 28.0, *row.TemperatureMax)
	require.Nil(t, row.NestHumidityMin, "empty form value must be stored as absent")
	require.Equal(t, "49.99", row.Price.StringFixed(2))
}

func TestCreateRejectsOutOfRangeEnvironmentField(t *testing.T) {
	svc, _ := setupSpeciesService(t)

	input := validInput()
	input.ArenaHumidityMax = "150"

	_, err := svc.Create(context.Background(), uuid.New(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateRejectsNonNumericEnvironmentField(t *testing.T) {
	svc, _ := setupSpeciesService(t)

	input := validInput()
	input.TemperatureMin = "warm"

	_, err := svc.Create(context.Background(), uuid.New(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc, _ := setupSpeciesService(t)

	input := validInput()
	input.Price = "-5"

	_, err := svc.Create(context.Background(), uuid.New(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateRejectsUnknownChangeEntryType(t *testing.T) {
	svc, _ := setupSpeciesService(t)

	input := validInput()
	input.Changes = []ChangeEntryInput{
		{Date: "2026-08-01", Type: "watering", Description: "misted"},
	}

	_, err := svc.Create(context.Background(), uuid.New(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreatePublishesOwnerTopic(t *testing.T) {
	svc, b := setupSpeciesService(t)
	owner := uuid.New()

	sub, err := b.Subscribe(context.Background(), broker.SpeciesTopic(owner.String()))
	require.NoError(t, err)
	defer sub.Unsubscribe()

	_, err = svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	select {
	case <-sub.Notifications():
	default:
		t.Fatal("expected a change notification after create")
	}
}

func TestUpdateKeepsStoredEnvironmentFieldWhenAbsent(t *testing.T) {
	svc, _ := setupSpeciesService(t)
	owner := uuid.New()

	input := validInput()
	input.TemperatureMin = "22"
	row, err := svc.Create(context.Background(), owner, input)
	require.NoError(t, err)

	update := validInput()
	update.Name = "Leafcutter ant colony"
	update.TemperatureMin = ""

	updated, err := svc.Update(context.Background(), owner, row.ID, update)
	require.NoError(t, err)
	require.Equal(t, "Leafcutter ant colony", updated.Name)
	require.NotNil(t, updated.TemperatureMin)
	require.Equal(t, 22.0, *updated.TemperatureMin)
}

func TestUpdateForbiddenForOtherOwner(t *testing.T) {
	svc, _ := setupSpeciesService(t)
	owner := uuid.New()

	row, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), uuid.New(), row.ID, validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestSetStockStatusTouchesOnlyAvailability(t *testing.T) {
	svc, _ := setupSpeciesService(t)
	owner := uuid.New()

	input := validInput()
	input.TemperatureMin = "20"
	row, err := svc.Create(context.Background(), owner, input)
	require.NoError(t, err)
	require.True(t, row.InStock)

	updated, err := svc.SetStockStatus(context.Background(), owner, row.ID, false)
	require.NoError(t, err)
	require.False(t, updated.InStock)
	require.Equal(t, row.Name, updated.Name)
	require.NotNil(t, updated.TemperatureMin)
	require.Equal(t, 20.0, *updated.TemperatureMin)
}

func TestDeleteMissingRecordSucceeds(t *testing.T) {
	svc, _ := setupSpeciesService(t)

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
}

func TestDeleteForbiddenForOtherOwner(t *testing.T) {
	svc, _ := setupSpeciesService(t)
	owner := uuid.New()

	row, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New(), row.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	rows, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
