package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/reelscout/reelscout/src/internal/auth"
	"github.com/reelscout/reelscout/src/internal/debounce"
	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/validation"
)

type moviesResponse struct {
	Status string         `json:"status"`
	Query  string         `json:"query"`
	Movies []domain.Movie `json:"movies"`
	Error  string         `json:"error,omitempty"`
}

type apiError struct {
	Error  string                 `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError maps a service error to a status code.
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, apiError{Error: auth.Message(err)})
	case errors.Is(err, domain.ErrInvalidRating), errors.Is(err, domain.ErrInvalidMovie):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, apiError{Error: "validation failed", Fields: verr.Fields})
	default:
		logWarn(r, err, "[API] Request failed")
		writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
	}
}

func movieID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidMovie
	}
	return id, nil
}

// decodeMovie reads the movie snapshot from the body. The path ID wins over
// any ID in the body.
func decodeMovie(r *http.Request, id int) (domain.Movie, error) {
	var m domain.Movie
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			return m, domain.ErrInvalidMovie
		}
	}
	m.ID = id
	return m, nil
}

func (s *Server) apiMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	movies, err := s.Catalog.Movies(ctx, currentClientID(ctx), query)
	switch {
	case errors.Is(err, debounce.ErrSuperseded):
		writeJSON(w, http.StatusOK, moviesResponse{Status: "superseded", Query: query, Movies: []domain.Movie{}})
	case err != nil:
		if movies == nil {
			movies = []domain.Movie{}
		}
		logWarn(r, err, "[API] Movies request failed")
		writeJSON(w, http.StatusBadGateway, moviesResponse{Status: "error", Query: query, Movies: movies, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, moviesResponse{Status: "ready", Query: query, Movies: movies})
	}
}

func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if user == nil {
		writeAPIError(w, r, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) apiListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.Favorites.List(r.Context(), currentUser(r.Context()))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	if favs == nil {
		favs = []domain.FavoriteEntry{}
	}
	writeJSON(w, http.StatusOK, favs)
}

func (s *Server) apiGetFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := movieID(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	fav, err := s.Favorites.IsFavorite(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": fav})
}

func (s *Server) apiSetFavorite(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := movieID(r)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		movie, err := decodeMovie(r, id)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		if err := s.Favorites.SetFavorite(r.Context(), currentUser(r.Context()), movie, on); err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": on})
	}
}

func (s *Server) apiToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := movieID(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	movie, err := decodeMovie(r, id)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	fav, err := s.Favorites.Toggle(r.Context(), currentUser(r.Context()), movie)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": fav})
}

func (s *Server) apiListRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.Ratings.List(r.Context(), currentUser(r.Context()))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	if ratings == nil {
		ratings = []domain.RatingEntry{}
	}
	writeJSON(w, http.StatusOK, ratings)
}

func (s *Server) apiGetRating(w http.ResponseWriter, r *http.Request) {
	id, err := movieID(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	score, err := s.Ratings.Rating(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "rating": score})
}

type rateRequest struct {
	Rating int          `json:"rating"`
	Movie  domain.Movie `json:"movie"`
}

func decodeRate(r *http.Request) (rateRequest, error) {
	var req rateRequest
	id, err := movieID(r)
	if err != nil {
		return req, err
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, domain.ErrInvalidRating
	}
	req.Movie.ID = id
	return req, nil
}

func (s *Server) apiSetRating(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRate(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	if err := s.Ratings.SetRating(r.Context(), currentUser(r.Context()), req.Movie, req.Rating); err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": req.Movie.ID, "rating": req.Rating})
}

func (s *Server) apiRate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRate(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	score, err := s.Ratings.Rate(r.Context(), currentUser(r.Context()), req.Movie, req.Rating)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": req.Movie.ID, "rating": score})
}

func (s *Server) apiGetProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if user == nil {
		writeAPIError(w, r, domain.ErrUnauthenticated)
		return
	}
	profile, err := s.Profiles.Get(r.Context(), user)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) apiSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON"})
		return
	}
	user := currentUser(r.Context())
	if err := s.Profiles.Save(r.Context(), user, profile); err != nil {
		writeAPIError(w, r, err)
		return
	}
	saved, err := s.Profiles.Get(r.Context(), user)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
