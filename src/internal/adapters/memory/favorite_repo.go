package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/reelscout/reelscout/src/internal/adapters/docpath"
	"github.com/reelscout/reelscout/src/internal/domain"
)

type InMemoryFavoriteRepo struct {
	docs map[string]domain.FavoriteEntry
	mu   sync.RWMutex
}

func NewFavoriteRepo() *InMemoryFavoriteRepo {
	return &InMemoryFavoriteRepo{
		docs: make(map[string]domain.FavoriteEntry),
	}
}

func (r *InMemoryFavoriteRepo) Get(ctx context.Context, userID string, movieID int) (*domain.FavoriteEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.docs[docpath.Favorite(userID, movieID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (r *InMemoryFavoriteRepo) List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := docpath.Favorites(userID)
	entries := []domain.FavoriteEntry{}
	for path, entry := range r.docs {
		if strings.HasPrefix(path, prefix) {
			entries = append(entries, entry)
		}
	}
	domain.SortFavorites(entries)
	return entries, nil
}

func (r *InMemoryFavoriteRepo) Put(ctx context.Context, entry *domain.FavoriteEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[docpath.Favorite(entry.UserID, entry.MovieID)] = *entry
	return nil
}

func (r *InMemoryFavoriteRepo) Delete(ctx context.Context, userID string, movieID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.docs, docpath.Favorite(userID, movieID))
	return nil
}
