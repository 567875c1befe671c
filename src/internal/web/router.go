package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.identify)

		r.Get("/", s.handleHome)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/account", s.handleAccount)
		r.Post("/account", s.handleSaveProfile)
		r.Post("/movies/{id}/favorite", s.handleFavoriteForm)
		r.Post("/movies/{id}/rating", s.handleRatingForm)

		r.Route("/auth", func(r chi.Router) {
			if s.opts.AuthRateLimit > 0 {
				window := s.opts.AuthRateWindow
				if window <= 0 {
					window = time.Minute
				}
				r.Use(httprate.LimitByIP(s.opts.AuthRateLimit, window))
			}
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.Post("/signout", s.handleSignOut)
			r.Get("/oidc/login", s.OIDC.HandleLogin)
			r.Get("/oidc/callback", s.OIDC.HandleCallback(s.completeLogin))
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   s.opts.CORSOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-ID"},
				AllowCredentials: false,
				MaxAge:           300,
			}))

			r.Get("/movies", s.apiMovies)
			r.Get("/me", s.apiMe)

			r.Get("/favorites", s.apiListFavorites)
			r.Get("/favorites/{id}", s.apiGetFavorite)
			r.Put("/favorites/{id}", s.apiSetFavorite(true))
			r.Delete("/favorites/{id}", s.apiSetFavorite(false))
			r.Post("/favorites/{id}/toggle", s.apiToggleFavorite)

			r.Get("/ratings", s.apiListRatings)
			r.Get("/ratings/{id}", s.apiGetRating)
			r.Put("/ratings/{id}", s.apiSetRating)
			r.Post("/ratings/{id}/rate", s.apiRate)

			r.Get("/profile", s.apiGetProfile)
			r.Put("/profile", s.apiSaveProfile)
		})
	})

	return r
}
