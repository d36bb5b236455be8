package store

import (
	"context"
	"sync"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/jonboulle/clockwork"
)

// MemoryStore keeps searches in process. Used for local development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	searches []models.SavedSearch
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{clock: orRealClock(clock)}
}

func (s *MemoryStore) SaveSearch(_ context.Context, city, userID string) (*models.SavedSearch, error) {
	search, err := newSearch(s.clock, city, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.searches = append(s.searches, *search)
	s.mu.Unlock()

	return search, nil
}

// Searches returns a copy of every saved search in insertion order.
func (s *MemoryStore) Searches() []models.SavedSearch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SavedSearch(nil), s.searches...)
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }
