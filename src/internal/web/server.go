// Package web is the presentation layer: server-rendered pages, the form
// endpoints behind them and a JSON API for script-driven clients.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/reelscout/reelscout/src/internal/auth"
	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/services"
	"github.com/reelscout/reelscout/src/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionCookie = "reelscout_session"
	clientCookie  = "reelscout_client"
	flashCookie   = "reelscout_flash"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Catalog   *services.CatalogService
	Favorites *services.FavoriteService
	Ratings   *services.RatingService
	Profiles  *services.ProfileService
	Auth      *auth.Provider
	Sessions  *session.Observer
	Tokens    *auth.TokenManager
	OIDC      *auth.OIDCService
}

type Options struct {
	CookieSecure   bool
	CORSOrigins    []string
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

type Server struct {
	Deps
	opts  Options
	pages map[string]*template.Template
}

func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.OIDC == nil {
		deps.OIDC = &auth.OIDCService{}
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{Deps: deps, opts: opts, pages: pages}, nil
}

var templateFuncs = template.FuncMap{
	"stars": func() []int { return []int{1, 2, 3, 4, 5} },
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"home", "dashboard", "account"} {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// movieCard is a catalog movie plus the signed-in user's state for it.
type movieCard struct {
	domain.Movie
	Favorite bool
	Rating   int
}

type pageData struct {
	Title     string
	Path      string
	User      *domain.User
	Flash     *flash
	OIDC      bool
	Query     string
	Movies    []movieCard
	Error     string
	Favorites []domain.FavoriteEntry
	Ratings   []domain.RatingEntry
	Profile   *domain.UserProfile
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	data.Path = r.URL.RequestURI()
	data.User = currentUser(r.Context())
	data.Flash = takeFlash(w, r)
	data.OIDC = s.OIDC.Enabled

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages[name].Execute(w, data); err != nil {
		logWarn(r, err, "[Web] Template execution failed")
	}
}
