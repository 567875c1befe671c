package domain

import (
	"cmp"
	"slices"
	"time"
)

const (
	PosterBaseURL   = "https://image.tmdb.org/t/p/w500"
	BackdropBaseURL = "https://image.tmdb.org/t/p/original"
	MoviePageURL    = "https://www.themoviedb.org/movie/"
)

// Movie is a catalog snapshot. It is never mutated locally.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path,omitempty"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	GenreIDs     []int   `json:"genre_ids"`
}

func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return PosterBaseURL + m.PosterPath
}

func (m Movie) BackdropURL() string {
	if m.BackdropPath == "" {
		return ""
	}
	return BackdropBaseURL + m.BackdropPath
}

func (m Movie) PageURL() string {
	return MoviePageURL + itoa(m.ID)
}

// FavoriteEntry mirrors favorites/{user}/movies/{movieId}.
type FavoriteEntry struct {
	UserID     string    `json:"-"`
	MovieID    int       `json:"id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	Overview   string    `json:"overview"`
	AddedAt    time.Time `json:"added_at"`
}

func NewFavoriteEntry(userID string, m Movie, now time.Time) FavoriteEntry {
	return FavoriteEntry{
		UserID:     userID,
		MovieID:    m.ID,
		Title:      m.Title,
		PosterPath: m.PosterPath,
		Overview:   m.Overview,
		AddedAt:    now,
	}
}

func (f FavoriteEntry) Movie() Movie {
	return Movie{ID: f.MovieID, Title: f.Title, PosterPath: f.PosterPath, Overview: f.Overview}
}

const (
	MinRating = 1
	MaxRating = 5
	// NoRating is the sentinel score that removes a rating.
	NoRating = 0
)

// RatingEntry mirrors ratings/{user}/movies/{movieId}.
type RatingEntry struct {
	UserID     string    `json:"-"`
	MovieID    int       `json:"movie"`
	Rating     int       `json:"rating"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	Overview   string    `json:"overview"`
}

func NewRatingEntry(userID string, m Movie, score int, now time.Time) RatingEntry {
	return RatingEntry{
		UserID:     userID,
		MovieID:    m.ID,
		Rating:     score,
		UpdatedAt:  now,
		Title:      m.Title,
		PosterPath: m.PosterPath,
		Overview:   m.Overview,
	}
}

func (r RatingEntry) Movie() Movie {
	return Movie{ID: r.MovieID, Title: r.Title, PosterPath: r.PosterPath, Overview: r.Overview}
}

// ValidScore reports whether score may be written. NoRating is valid and means delete.
func ValidScore(score int) bool {
	return score == NoRating || (score >= MinRating && score <= MaxRating)
}

// SortFavorites orders entries newest first, then by movie ID.
func SortFavorites(entries []FavoriteEntry) {
	slices.SortFunc(entries, func(a, b FavoriteEntry) int {
		if c := b.AddedAt.Compare(a.AddedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.MovieID, b.MovieID)
	})
}

// SortRatings orders entries most recently rated first, then by movie ID.
func SortRatings(entries []RatingEntry) {
	slices.SortFunc(entries, func(a, b RatingEntry) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.MovieID, b.MovieID)
	})
}
