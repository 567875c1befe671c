package memory

import "github.com/reelscout/reelscout/src/internal/ports"

// NewStore returns an empty in-process store. Data is lost on restart.
func NewStore() *ports.Store {
	return &ports.Store{
		Favorites: NewFavoriteRepo(),
		Ratings:   NewRatingRepo(),
		Profiles:  NewProfileRepo(),
		Accounts:  NewAccountRepo(),
		Close:     func() error { return nil },
	}
}
