// Package localstore is the legacy single-blob fallback deployment. The whole
// species collection lives under one key-value entry as a JSON array; every
// mutation rewrites the blob. There is no ownership scoping and no category
// entity, records carry a flat category label instead.
package localstore

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/redis"
)

const blobName = "species-data"

// LocalSpecies is the legacy record layout. Environment fields stay free-form
// strings and the category is a plain label.
type LocalSpecies struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Type          string               `json:"type"`
	Temperature   string               `json:"temperature"`
	NestHumidity  string               `json:"nestHumidity"`
	ArenaHumidity string               `json:"arenaHumidity"`
	Changes       []models.ChangeEntry `json:"changes"`
	Behavior      string               `json:"behavior"`
	Description   string               `json:"description"`
	Price         float64              `json:"price"`
	InStock       bool                 `json:"inStock"`
}

// KV is the blob backend. Satisfied by the redis client.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Store serves the blob through an in-memory working copy. The blob is parsed
// once on first access; every mutation reserializes the full collection.
type Store struct {
	kv      KV
	key     string
	broker  broker.Broker
	newID   func() string
	now     func() time.Time

	mu     sync.Mutex
	items  []LocalSpecies
	loaded bool
}

func NewStore(client *redis.Client, b broker.Broker) *Store {
	return &Store{
		kv:     client,
		key:    client.BlobKey(blobName),
		broker: b,
		newID: func() string {
			return strconv.FormatInt(time.Now().UnixMilli(), 10)
		},
		now: time.Now,
	}
}

// Topic names the change channel for the blob collection.
func Topic() broker.Topic {
	return broker.SpeciesTopic("local")
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if redis.IsNotFound(err) {
			s.items = []LocalSpecies{}
			s.loaded = true
			return nil
		}
		return pkgerrors.WrapStore(err, "load", blobName)
	}
	var items []LocalSpecies
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return pkgerrors.WrapStore(err, "parse", blobName)
	}
	s.items = items
	s.loaded = true
	return nil
}

func (s *Store) flush(ctx context.Context) error {
	raw, err := json.Marshal(s.items)
	if err != nil {
		return pkgerrors.WrapStore(err, "serialize", blobName)
	}
	if err := s.kv.Set(ctx, s.key, string(raw), 0); err != nil {
		return pkgerrors.WrapStore(err, "save", blobName)
	}
	// The write already succeeded; a lost notification only delays readers
	// until the next one.
	_ = s.broker.Publish(ctx, Topic())
	return nil
}

// All returns a name-sorted copy of the collection.
func (s *Store) All(ctx context.Context) ([]LocalSpecies, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]LocalSpecies, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Add appends a record, assigning a timestamp-derived id.
func (s *Store) Add(ctx context.Context, item LocalSpecies) (*LocalSpecies, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "species name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	item.ID = s.newID()
	if item.Changes == nil {
		item.Changes = []models.ChangeEntry{}
	}
	s.items = append(s.items, item)
	if err := s.flush(ctx); err != nil {
		s.items = s.items[:len(s.items)-1]
		return nil, err
	}
	return &item, nil
}

// Update replaces the record with the matching id.
func (s *Store) Update(ctx context.Context, id string, item LocalSpecies) (*LocalSpecies, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		prev := s.items[i]
		item.ID = id
		if item.Changes == nil {
			item.Changes = prev.Changes
		}
		s.items[i] = item
		if err := s.flush(ctx); err != nil {
			s.items[i] = prev
			return nil, err
		}
		return &item, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "species not found")
}

// SetStockStatus flips availability of a single record.
func (s *Store) SetStockStatus(ctx context.Context, id string, inStock bool) (*LocalSpecies, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		prev := s.items[i].InStock
		s.items[i].InStock = inStock
		if err := s.flush(ctx); err != nil {
			s.items[i].InStock = prev
			return nil, err
		}
		item := s.items[i]
		return &item, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "species not found")
}

// Delete removes the record with the matching id. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		prev := s.items
		s.items = append(append([]LocalSpecies{}, s.items[:i]...), s.items[i+1:]...)
		if err := s.flush(ctx); err != nil {
			s.items = prev
			return err
		}
		return nil
	}
	return nil
}
