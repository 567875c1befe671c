package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	user := currentUser(ctx)

	data := pageData{Title: "Discover", Query: query}
	if query != "" {
		data.Title = "Search: " + query
	}

	// A submitted form is an explicit search, so it is not debounced.
	movies, err := s.Catalog.Movies(ctx, "", query)
	if err != nil {
		logWarn(r, err, "[Web] Failed to load movies")
		data.Error = "Error: " + err.Error()
	}
	data.Movies = s.cards(ctx, user, movies)
	s.render(w, r, "home", data)
}

// cards joins movies with the user's favorites and ratings. Anonymous
// visitors get bare cards.
func (s *Server) cards(ctx context.Context, user *domain.User, movies []domain.Movie) []movieCard {
	cards := make([]movieCard, len(movies))
	for i, m := range movies {
		cards[i] = movieCard{Movie: m}
	}
	if user == nil {
		return cards
	}

	favs, err := s.Favorites.List(ctx, user)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("[Web] Could not fetch favorite status")
	}
	ratings, err := s.Ratings.List(ctx, user)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("[Web] Could not fetch ratings")
	}

	favorite := make(map[int]bool, len(favs))
	for _, f := range favs {
		favorite[f.MovieID] = true
	}
	score := make(map[int]int, len(ratings))
	for _, rt := range ratings {
		score[rt.MovieID] = rt.Rating
	}
	for i := range cards {
		cards[i].Favorite = favorite[cards[i].ID]
		cards[i].Rating = score[cards[i].ID]
	}
	return cards
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(ctx)
	data := pageData{Title: "Dashboard"}
	if user == nil {
		s.render(w, r, "dashboard", data)
		return
	}

	var errs []string
	favs, err := s.Favorites.List(ctx, user)
	if err != nil {
		logWarn(r, err, "[Web] Failed to load favorites")
		errs = append(errs, "Could not load favorites")
	}
	ratings, err := s.Ratings.List(ctx, user)
	if err != nil {
		logWarn(r, err, "[Web] Failed to load ratings")
		errs = append(errs, "Could not load ratings")
	}
	data.Favorites = favs
	data.Ratings = ratings
	data.Error = strings.Join(errs, ". ")
	s.render(w, r, "dashboard", data)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := pageData{Title: "Account"}
	if user := currentUser(ctx); user != nil {
		profile, err := s.Profiles.Get(ctx, user)
		if err != nil {
			logWarn(r, err, "[Web] Failed to load profile")
			data.Error = "Could not load profile"
		}
		data.Profile = profile
	}
	s.render(w, r, "account", data)
}
