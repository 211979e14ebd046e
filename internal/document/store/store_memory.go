package store

import (
	"context"
	"sort"
	"sync"

	"vitrine/internal/document/models"
	id "vitrine/pkg/domain"
)

type slotKey struct {
	profileID id.ProfileID
	category  models.Category
}

// InMemoryStore keeps document records in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[slotKey]*models.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[slotKey]*models.Record)}
}

// Replace installs record as the active document for its slot, superseding
// any previous one.
func (s *InMemoryStore) Replace(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[slotKey{record.ProfileID, record.Category}] = clone(record)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, profileID id.ProfileID, category models.Category) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[slotKey{profileID, category}]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r), nil
}

// ListByProfile returns the profile's active records in catalog order.
func (s *InMemoryStore) ListByProfile(_ context.Context, profileID id.ProfileID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for key, r := range s.records {
		if key.profileID == profileID {
			out = append(out, clone(r))
		}
	}
	sortByCatalog(out)
	return out, nil
}

// UpdateReview persists review fields for record, provided the slot still
// holds the same document in fromStatus. A concurrent replace or review
// yields ErrConflict.
func (s *InMemoryStore) UpdateReview(_ context.Context, record *models.Record, fromStatus models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey{record.ProfileID, record.Category}
	current, ok := s.records[key]
	if !ok {
		return ErrNotFound
	}
	if current.ID != record.ID || current.Status != fromStatus {
		return ErrConflict
	}
	s.records[key] = clone(record)
	return nil
}

func clone(r *models.Record) *models.Record {
	c := *r
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}

func sortByCatalog(records []*models.Record) {
	order := make(map[models.Category]int)
	for i, info := range models.Categories() {
		order[info.Category] = i
	}
	sort.Slice(records, func(i, j int) bool {
		return order[records[i].Category] < order[records[j].Category]
	})
}
