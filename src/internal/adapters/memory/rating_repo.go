package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/reelscout/reelscout/src/internal/adapters/docpath"
	"github.com/reelscout/reelscout/src/internal/domain"
)

type InMemoryRatingRepo struct {
	docs map[string]domain.RatingEntry
	mu   sync.RWMutex
}

func NewRatingRepo() *InMemoryRatingRepo {
	return &InMemoryRatingRepo{
		docs: make(map[string]domain.RatingEntry),
	}
}

func (r *InMemoryRatingRepo) Get(ctx context.Context, userID string, movieID int) (*domain.RatingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.docs[docpath.Rating(userID, movieID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (r *InMemoryRatingRepo) List(ctx context.Context, userID string) ([]domain.RatingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := docpath.Ratings(userID)
	entries := []domain.RatingEntry{}
	for path, entry := range r.docs {
		if strings.HasPrefix(path, prefix) {
			entries = append(entries, entry)
		}
	}
	domain.SortRatings(entries)
	return entries, nil
}

func (r *InMemoryRatingRepo) Put(ctx context.Context, entry *domain.RatingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[docpath.Rating(entry.UserID, entry.MovieID)] = *entry
	return nil
}

func (r *InMemoryRatingRepo) Delete(ctx context.Context, userID string, movieID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.docs, docpath.Rating(userID, movieID))
	return nil
}
