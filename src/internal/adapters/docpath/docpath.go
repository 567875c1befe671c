// Package docpath names the documents of the per-user store. Document
// backends (memory, badger) key records by these paths verbatim.
package docpath

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func Favorite(userID string, movieID int) string {
	return Favorites(userID) + strconv.Itoa(movieID)
}

// Favorites is the collection prefix of a user's favorites.
func Favorites(userID string) string {
	return "favorites/" + segment(userID) + "/movies/"
}

func Rating(userID string, movieID int) string {
	return Ratings(userID) + strconv.Itoa(movieID)
}

func Ratings(userID string) string {
	return "ratings/" + segment(userID) + "/movies/"
}

func User(userID string) string {
	return "users/" + segment(userID)
}

// segment escapes an ID so a "/" in it cannot reach into another
// user's collection.
func segment(id string) string {
	return url.PathEscape(id)
}

// Account keys credentials by normalized email.
func Account(email string) string {
	return "accounts/" + NormalizeEmail(email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MovieID extracts the trailing movie ID of a favorite or rating path.
func MovieID(path string) (int, error) {
	i := strings.LastIndexByte(path, '/')
	id, err := strconv.Atoi(path[i+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed document path %q: %w", path, err)
	}
	return id, nil
}
