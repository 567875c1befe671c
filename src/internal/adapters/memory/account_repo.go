package memory

import (
	"context"
	"sync"

	"github.com/reelscout/reelscout/src/internal/adapters/docpath"
	"github.com/reelscout/reelscout/src/internal/domain"
)

type InMemoryAccountRepo struct {
	docs map[string]domain.Account
	mu   sync.RWMutex
}

func NewAccountRepo() *InMemoryAccountRepo {
	return &InMemoryAccountRepo{
		docs: make(map[string]domain.Account),
	}
}

func (r *InMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := docpath.Account(account.Email)
	if _, exists := r.docs[path]; exists {
		return domain.ErrEmailInUse
	}
	r.docs[path] = *account
	return nil
}

func (r *InMemoryAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.docs[docpath.Account(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}
