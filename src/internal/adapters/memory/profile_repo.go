package memory

import (
	"context"
	"sync"

	"github.com/reelscout/reelscout/src/internal/adapters/docpath"
	"github.com/reelscout/reelscout/src/internal/domain"
)

type InMemoryProfileRepo struct {
	docs map[string]domain.UserProfile
	mu   sync.RWMutex
}

func NewProfileRepo() *InMemoryProfileRepo {
	return &InMemoryProfileRepo{
		docs: make(map[string]domain.UserProfile),
	}
}

func (r *InMemoryProfileRepo) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.docs[docpath.User(userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *InMemoryProfileRepo) Save(ctx context.Context, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[docpath.User(profile.UserID)] = *profile
	return nil
}
