package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
)

type fakeKV struct {
	data map[string]string
	sets int
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(string)
	f.sets++
	return nil
}

func setupLocalStore(t *testing.T) (*Store, *fakeKV) {
	t.Helper()

	kv := &fakeKV{data: map[string]string{}}
	var seq int
	store := &Store{
		kv:     kv,
		key:    "ts:blob:species-data",
		broker: broker.NewMemoryBroker(),
		newID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		now: time.Now,
	}
	return store, kv
}

func TestAllOnEmptyBlob(t *testing.T) {
	store, _ := setupLocalStore(t)

	items, err := store.All(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestAddSerializesWholeCollection(t *testing.T) {
	store, kv := setupLocalStore(t)

	first, err := store.Add(context.Background(), LocalSpecies{Name: "Zebra spider", Type: "spiders"})
	require.NoError(t, err)
	require.Equal(t, "id-1", first.ID)

	_, err = store.Add(context.Background(), LocalSpecies{Name: "ant colony", Type: "ants"})
	require.NoError(t, err)
	require.Equal(t, 2, kv.sets)

	var stored []LocalSpecies
	require.NoError(t, json.Unmarshal([]byte(kv.data["ts:blob:species-data"]), &stored))
	require.Len(t, stored, 2)
}

func TestAllSortsByName(t *testing.T) {
	store, _ := setupLocalStore(t)

	_, err := store.Add(context.Background(), LocalSpecies{Name: "Zebra spider"})
	require.NoError(t, err)
	_, err = store.Add(context.Background(), LocalSpecies{Name: "ant colony"})
	require.NoError(t, err)

	items, err := store.All(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ant colony", items[0].Name)
	require.Equal(t, "Zebra spider", items[1].Name)
}

func TestUpdateReplacesRecord(t *testing.T) {
	store, _ := setupLocalStore(t)

	created, err := store.Add(context.Background(), LocalSpecies{
		Name:    "Mantis",
		Changes: []models.ChangeEntry{{Date: "2026-08-01", Type: models.ChangeEntryFeeding}},
	})
	require.NoError(t, err)

	updated, err := store.Update(context.Background(), created.ID, LocalSpecies{
		Name:        "Orchid mantis",
		Temperature: "24-28",
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Orchid mantis", updated.Name)
	require.Len(t, updated.Changes, 1, "an omitted change log keeps the stored one")
}

func TestUpdateUnknownID(t *testing.T) {
	store, _ := setupLocalStore(t)

	_, err := store.Update(context.Background(), "missing", LocalSpecies{Name: "x"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestSetStockStatus(t *testing.T) {
	store, _ := setupLocalStore(t)

	created, err := store.Add(context.Background(), LocalSpecies{Name: "Isopod", InStock: true})
	require.NoError(t, err)

	updated, err := store.SetStockStatus(context.Background(), created.ID, false)
	require.NoError(t, err)
	require.False(t, updated.InStock)
	require.Equal(t, "Isopod", updated.Name)
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	store, kv := setupLocalStore(t)

	require.NoError(t, store.Delete(context.Background(), "missing"))
	require.Equal(t, 0, kv.sets)
}

func TestDeleteRemovesRecord(t *testing.T) {
	store, _ := setupLocalStore(t)

	created, err := store.Add(context.Background(), LocalSpecies{Name: "Isopod"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), created.ID))

	items, err := store.All(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)
}
