// Package store persists the search audit trail. Every call to SaveSearch
// inserts a new record; nothing is deduplicated, updated or deleted.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Collection is the collection/table name for saved searches.
const Collection = "searches"

type SearchStore interface {
	SaveSearch(ctx context.Context, city, userID string) (*models.SavedSearch, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// newSearch builds the record to insert. Both fields must be non-blank.
func newSearch(clock clockwork.Clock, city, userID string) (*models.SavedSearch, error) {
	city = strings.TrimSpace(city)
	userID = strings.TrimSpace(userID)
	if city == "" || userID == "" {
		return nil, fmt.Errorf("%w: city and userId are required", models.ErrValidation)
	}
	return &models.SavedSearch{
		ID:        uuid.NewString(),
		City:      city,
		UserID:    userID,
		CreatedAt: clock.Now().UTC(),
	}, nil
}

func orRealClock(clock clockwork.Clock) clockwork.Clock {
	if clock == nil {
		return clockwork.NewRealClock()
	}
	return clock
}
