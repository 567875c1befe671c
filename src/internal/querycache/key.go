package querycache

import "fmt"

const (
	OpPopular   = "movies"
	OpSearch    = "search"
	OpFavorite  = "favorite"
	OpFavorites = "favorites"
	OpRating    = "rating"
	OpRatings   = "ratings"
	OpProfile   = "userProfile"
)

// Key identifies one cached query. Fields are compared structurally, so
// ("search", term "a/b") and ("search/a", term "b") never collide.
type Key struct {
	Op    string
	Scope string // owning user ID for per-user queries
	Item  int    // movie ID for single-item queries
	Term  string // free-text parameter
}

func (k Key) String() string {
	s := k.Op
	if k.Scope != "" {
		s += fmt.Sprintf(" scope=%q", k.Scope)
	}
	if k.Item != 0 {
		s += fmt.Sprintf(" item=%d", k.Item)
	}
	if k.Term != "" {
		s += fmt.Sprintf(" term=%q", k.Term)
	}
	return s
}

func PopularKey() Key                { return Key{Op: OpPopular} }
func SearchKey(term string) Key      { return Key{Op: OpSearch, Term: term} }
func FavoritesKey(userID string) Key { return Key{Op: OpFavorites, Scope: userID} }
func RatingsKey(userID string) Key   { return Key{Op: OpRatings, Scope: userID} }
func ProfileKey(userID string) Key   { return Key{Op: OpProfile, Scope: userID} }

func FavoriteKey(userID string, movieID int) Key {
	return Key{Op: OpFavorite, Scope: userID, Item: movieID}
}

func RatingKey(userID string, movieID int) Key {
	return Key{Op: OpRating, Scope: userID, Item: movieID}
}

// ScopedTo matches every per-user key owned by userID.
func ScopedTo(userID string) func(Key) bool {
	return func(k Key) bool { return k.Scope != "" && k.Scope == userID }
}

// OpIs matches keys of the given operation.
func OpIs(op string) func(Key) bool {
	return func(k Key) bool { return k.Op == op }
}
