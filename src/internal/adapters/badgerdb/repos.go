package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/reelscout/reelscout/src/internal/adapters/docpath"
	"github.com/reelscout/reelscout/src/internal/domain"
)

type FavoriteRepo struct {
	db *badger.DB
}

func NewFavoriteRepo(db *badger.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

func (r *FavoriteRepo) Get(ctx context.Context, userID string, movieID int) (*domain.FavoriteEntry, error) {
	f, err := getDoc[domain.FavoriteEntry](r.db, docpath.Favorite(userID, movieID))
	if err != nil {
		return nil, err
	}
	f.UserID = userID
	return f, nil
}

func (r *FavoriteRepo) List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error) {
	entries, err := listDocs[domain.FavoriteEntry](r.db, docpath.Favorites(userID))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].UserID = userID
	}
	domain.SortFavorites(entries)
	return entries, nil
}

func (r *FavoriteRepo) Put(ctx context.Context, f *domain.FavoriteEntry) error {
	return putDoc(r.db, docpath.Favorite(f.UserID, f.MovieID), f)
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID string, movieID int) error {
	return deleteDoc(r.db, docpath.Favorite(userID, movieID))
}

type RatingRepo struct {
	db *badger.DB
}

func NewRatingRepo(db *badger.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

func (r *RatingRepo) Get(ctx context.Context, userID string, movieID int) (*domain.RatingEntry, error) {
	e, err := getDoc[domain.RatingEntry](r.db, docpath.Rating(userID, movieID))
	if err != nil {
		return nil, err
	}
	e.UserID = userID
	return e, nil
}

func (r *RatingRepo) List(ctx context.Context, userID string) ([]domain.RatingEntry, error) {
	entries, err := listDocs[domain.RatingEntry](r.db, docpath.Ratings(userID))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].UserID = userID
	}
	domain.SortRatings(entries)
	return entries, nil
}

func (r *RatingRepo) Put(ctx context.Context, e *domain.RatingEntry) error {
	return putDoc(r.db, docpath.Rating(e.UserID, e.MovieID), e)
}

func (r *RatingRepo) Delete(ctx context.Context, userID string, movieID int) error {
	return deleteDoc(r.db, docpath.Rating(userID, movieID))
}

type ProfileRepo struct {
	db *badger.DB
}

func NewProfileRepo(db *badger.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p, err := getDoc[domain.UserProfile](r.db, docpath.User(userID))
	if err != nil {
		return nil, err
	}
	p.UserID = userID
	return p, nil
}

func (r *ProfileRepo) Save(ctx context.Context, p *domain.UserProfile) error {
	return putDoc(r.db, docpath.User(p.UserID), p)
}

// accountDoc is the stored form of a credential record.
type accountDoc struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

type AccountRepo struct {
	db *badger.DB
}

func NewAccountRepo(db *badger.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create fails with domain.ErrEmailInUse if the email already has a
// document. The check and the write share one transaction.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	data, err := json.Marshal(accountDoc{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	key := []byte(docpath.Account(a.Email))
	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return domain.ErrEmailInUse
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrEmailInUse
	}
	return err
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	doc, err := getDoc[accountDoc](r.db, docpath.Account(email))
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    time.Unix(0, doc.CreatedAt).UTC(),
	}, nil
}
