package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/reelscout/reelscout/src/internal/auth"
	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/validation"
)

// returnTo is the local page a form asked to go back to.
func returnTo(r *http.Request, fallback string) string {
	next := r.FormValue("return")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" {
		return fallback
	}
	return next
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Auth.SignUp(r.Context(), r.FormValue("email"), r.FormValue("password"), r.FormValue("confirm"))
	s.finishAuthForm(w, r, sess, err)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Auth.SignIn(r.Context(), r.FormValue("email"), r.FormValue("password"))
	s.finishAuthForm(w, r, sess, err)
}

func (s *Server) finishAuthForm(w http.ResponseWriter, r *http.Request, sess *domain.Session, err error) {
	if err != nil {
		setFlash(w, "error", auth.Message(err))
		http.Redirect(w, r, returnTo(r, "/account"), http.StatusSeeOther)
		return
	}
	s.completeLogin(w, r, sess)
}

// completeLogin sets the session cookie and sends the visitor home.
func (s *Server) completeLogin(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if err := s.setSessionCookie(w, sess); err != nil {
		logWarn(r, err, "[Web] Failed to issue session cookie")
		s.Auth.SignOut(sess.ID)
		setFlash(w, "error", auth.Message(err))
		http.Redirect(w, r, "/account", http.StatusSeeOther)
		return
	}
	logging.Ctx(r.Context()).Info().Str("user", sess.User.ID).Msg("[Web] Signed in")
	http.Redirect(w, r, returnTo(r, "/"), http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if sid := currentSessionID(r.Context()); sid != "" {
		s.Auth.SignOut(sid)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func movieFromForm(r *http.Request) (domain.Movie, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return domain.Movie{}, domain.ErrInvalidMovie
	}
	return domain.Movie{
		ID:         id,
		Title:      r.FormValue("title"),
		PosterPath: r.FormValue("poster_path"),
		Overview:   r.FormValue("overview"),
	}, nil
}

func (s *Server) handleFavoriteForm(w http.ResponseWriter, r *http.Request) {
	back := returnTo(r, "/")
	movie, err := movieFromForm(r)
	if err == nil {
		_, err = s.Favorites.Toggle(r.Context(), currentUser(r.Context()), movie)
	}
	if err != nil {
		logWarn(r, err, "[Web] Favorite toggle failed")
		setFlash(w, "error", writeMessage(err, "Could not add to favorites"))
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handleRatingForm(w http.ResponseWriter, r *http.Request) {
	back := returnTo(r, "/")
	movie, err := movieFromForm(r)
	if err == nil {
		var score int
		score, err = strconv.Atoi(r.FormValue("score"))
		if err != nil {
			err = domain.ErrInvalidRating
		} else {
			_, err = s.Ratings.Rate(r.Context(), currentUser(r.Context()), movie, score)
		}
	}
	if err != nil {
		logWarn(r, err, "[Web] Rating failed")
		setFlash(w, "error", writeMessage(err, "Could not save rating"))
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	profile := domain.UserProfile{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Address: strings.TrimSpace(r.FormValue("address")),
	}
	err := s.Profiles.Save(r.Context(), currentUser(r.Context()), profile)
	switch {
	case err == nil:
		setFlash(w, "success", "Profile updated successfully!")
	case errors.Is(err, domain.ErrUnauthenticated):
		setFlash(w, "error", auth.Message(err))
	default:
		logWarn(r, err, "[Web] Profile save failed")
		setFlash(w, "error", "Failed to update profile: "+profileError(err))
	}
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

func profileError(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return "please try again"
}

// writeMessage is the notification for a failed mutation.
func writeMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return auth.Message(err)
	case errors.Is(err, domain.ErrInvalidRating):
		return "Rating must be between 1 and 5"
	case errors.Is(err, domain.ErrInvalidMovie):
		return "Unknown movie"
	default:
		return fallback
	}
}
