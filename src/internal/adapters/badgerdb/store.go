// Package badgerdb is an embedded document store. Each record is a JSON
// document stored under its docpath key.
package badgerdb

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/ports"
)

// Open opens (or creates) the database in dir. An empty dir keeps
// everything in memory.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}
	logging.Info().Str("dir", dir).Bool("in_memory", dir == "").Msg("[Badger] Opened document store")
	return db, nil
}

// NewStore wires the document repositories onto db. Closing the store
// closes db.
func NewStore(db *badger.DB) *ports.Store {
	return &ports.Store{
		Favorites: NewFavoriteRepo(db),
		Ratings:   NewRatingRepo(db),
		Profiles:  NewProfileRepo(db),
		Accounts:  NewAccountRepo(db),
		Close:     db.Close,
	}
}

func getDoc[T any](db *badger.DB, key string) (*T, error) {
	var doc T
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func putDoc(db *badger.DB, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func deleteDoc(db *badger.DB, key string) error {
	return db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// listDocs decodes every document under prefix, in key order.
func listDocs[T any](db *badger.DB, prefix string) ([]T, error) {
	docs := []T{}
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var doc T
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
