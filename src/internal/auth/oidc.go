package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/reelscout/reelscout/src/internal/config"
	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
)

const stateCookie = "reelscout_oidc_state"

// LoginFunc completes a browser sign-in, typically by setting the session
// cookie and redirecting.
type LoginFunc func(w http.ResponseWriter, r *http.Request, s *domain.Session)

// OIDCService signs visitors in through an external OpenID Connect provider
// and verifies bearer tokens presented to the API.
type OIDCService struct {
	Config   oauth2.Config
	Enabled  bool
	Secure   bool
	verifier *oidc.IDTokenVerifier // ID tokens, audience checked
	bearer   *oidc.IDTokenVerifier // access tokens, audience not checked
	provider *Provider
}

// NewOIDCService discovers cfg.ProviderURL. A missing or unreachable
// provider disables OIDC instead of failing startup.
func NewOIDCService(ctx context.Context, cfg config.OIDCConfig, provider *Provider) *OIDCService {
	if !cfg.Enabled() {
		logging.Info().Msg("[OIDC] OIDC_PROVIDER not set. OIDC sign-in disabled.")
		return &OIDCService{provider: provider}
	}

	p, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		logging.Error().Err(err).Str("provider", cfg.ProviderURL).Msg("[OIDC] Failed to init OIDC provider")
		return &OIDCService{provider: provider}
	}

	conf := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     p.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return NewOIDCServiceWith(conf,
		p.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		p.Verifier(&oidc.Config{ClientID: cfg.ClientID, SkipClientIDCheck: true}),
		provider)
}

// NewOIDCServiceWith builds an enabled service from explicit parts.
func NewOIDCServiceWith(conf oauth2.Config, idTokens, accessTokens *oidc.IDTokenVerifier, provider *Provider) *OIDCService {
	return &OIDCService{
		Config:   conf,
		Enabled:  true,
		verifier: idTokens,
		bearer:   accessTokens,
		provider: provider,
	}
}

func (s *OIDCService) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.Enabled {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	state, err := randomState()
	if err != nil {
		http.Error(w, "Failed to start sign-in", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/oidc",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.Config.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback exchanges the authorization code, verifies the ID token and
// opens a session for its subject.
func (s *OIDCService) HandleCallback(login LoginFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.Enabled {
			http.Error(w, "OIDC sign-in disabled", http.StatusBadRequest)
			return
		}

		c, err := r.Cookie(stateCookie)
		if err != nil || c.Value == "" || r.URL.Query().Get("state") != c.Value {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/oidc", MaxAge: -1})

		token, err := s.Config.Exchange(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("[OIDC] Code exchange failed")
			http.Error(w, "Failed to exchange token", http.StatusBadGateway)
			return
		}
		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			http.Error(w, "Provider returned no id_token", http.StatusBadGateway)
			return
		}
		user, err := verify(r.Context(), s.verifier, rawIDToken)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("[OIDC] ID token verification failed")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		sess, err := s.provider.SignInExternal(*user)
		if err != nil {
			http.Error(w, Message(err), http.StatusUnauthorized)
			return
		}
		logging.Ctx(r.Context()).Info().Str("user", user.ID).Msg("[OIDC] Signed in")
		login(w, r, sess)
	}
}

// VerifyBearer resolves an "Authorization: Bearer" header to a user. It
// returns domain.ErrUnauthenticated when no bearer token is present.
func (s *OIDCService) VerifyBearer(ctx context.Context, header string) (*domain.User, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, domain.ErrUnauthenticated
	}
	if !s.Enabled || s.bearer == nil {
		return nil, domain.ErrUnauthenticated
	}
	user, err := verify(ctx, s.bearer, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	return user, nil
}

func verify(ctx context.Context, v *oidc.IDTokenVerifier, raw string) (*domain.User, error) {
	if v == nil {
		return nil, errors.New("no verifier configured")
	}
	tok, err := v.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims struct {
		Sub               string `json:"sub"`
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("invalid token claims: %w", err)
	}
	if claims.Sub == "" {
		return nil, errors.New("token has no subject")
	}
	user := &domain.User{ID: claims.Sub, Email: claims.Email, DisplayName: claims.Name}
	if user.DisplayName == "" {
		user.DisplayName = claims.PreferredUsername
	}
	if user.Email == "" {
		user.Email = claims.PreferredUsername
	}
	return user, nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
