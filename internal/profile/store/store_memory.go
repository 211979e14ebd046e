package store

import (
	"context"
	"sync"

	"vitrine/internal/profile/models"
	id "vitrine/pkg/domain"
)

// InMemoryStore keeps profiles keyed by user.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*models.Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]*models.Profile)}
}

func (s *InMemoryStore) GetByUser(_ context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) GetByID(_ context.Context, profileID id.ProfileID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.ID == profileID {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// Save stores p if p.Version is exactly one past the stored version.
func (s *InMemoryStore) Save(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[p.UserID]
	switch {
	case !ok && p.Version != 1:
		return ErrConflict
	case ok && current.Version != p.Version-1:
		return ErrConflict
	}
	s.profiles[p.UserID] = p.Clone()
	return nil
}
