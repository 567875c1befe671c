// Package auth is the identity provider: email/password accounts, OIDC
// sign-in, browser sessions and the change notifications the session
// observer listens to.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/metrics"
	"github.com/reelscout/reelscout/src/internal/ports"
	"github.com/reelscout/reelscout/src/internal/session"
	"github.com/reelscout/reelscout/src/internal/validation"
)

const DefaultMinPasswordLength = 6

type Options struct {
	MinPasswordLength int
	SessionTimeout    time.Duration
	BcryptCost        int
	Now               func() time.Time
}

// Provider owns accounts and sessions. Every sign-in, sign-out and expiry
// is published to subscribers as a session.Event.
type Provider struct {
	accounts ports.AccountRepository
	opts     Options

	mu       sync.RWMutex
	sessions map[string]*domain.Session
	hub      session.Hub[session.Event]
}

func NewProvider(accounts ports.AccountRepository, opts Options) *Provider {
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = DefaultMinPasswordLength
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{
		accounts: accounts,
		opts:     opts,
		sessions: make(map[string]*domain.Session),
	}
}

// Subscribe implements session.Source.
func (p *Provider) Subscribe(fn func(session.Event)) func() {
	return p.hub.Subscribe(fn)
}

// SignUp creates an account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password, confirm string) (*domain.Session, error) {
	s, err := p.signUp(ctx, email, password, confirm)
	recordAuth("signup", err)
	return s, err
}

func (p *Provider) signUp(ctx context.Context, email, password, confirm string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if !validation.Email(email) {
		return nil, domain.ErrInvalidEmail
	}
	if password != confirm {
		return nil, domain.ErrPasswordMismatch
	}
	if len(password) < p.opts.MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.opts.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.ErrWeakPassword
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.opts.Now(),
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	logging.Ctx(ctx).Info().Str("user", account.ID).Msg("[Auth] Account created")
	return p.open(account.User()), nil
}

// SignIn checks credentials and opens a session. Unknown email and wrong
// password are reported the same way.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	s, err := p.signIn(ctx, email, password)
	recordAuth("signin", err)
	return s, err
}

func (p *Provider) signIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if !validation.Email(email) {
		return nil, domain.ErrInvalidEmail
	}
	account, err := p.accounts.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return p.open(account.User()), nil
}

// SignInExternal opens a session for an identity verified elsewhere, such
// as an OIDC provider.
func (p *Provider) SignInExternal(user domain.User) (*domain.Session, error) {
	if user.ID == "" {
		recordAuth("external", domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}
	recordAuth("external", nil)
	return p.open(&user), nil
}

// SignOut ends sessionID. Unknown sessions are ignored.
func (p *Provider) SignOut(sessionID string) {
	p.mu.Lock()
	_, ok := p.sessions[sessionID]
	delete(p.sessions, sessionID)
	p.mu.Unlock()

	if ok {
		recordAuth("signout", nil)
		p.hub.Publish(session.Event{SessionID: sessionID})
	}
}

// Session returns a live session.
func (p *Provider) Session(sessionID string) (*domain.Session, error) {
	p.mu.RLock()
	s, ok := p.sessions[sessionID]
	p.mu.RUnlock()
	if !ok || p.expired(s) {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// ExpireSessions ends every session older than the session timeout and
// returns how many were ended.
func (p *Provider) ExpireSessions() int {
	p.mu.Lock()
	var expired []string
	for id, s := range p.sessions {
		if p.expired(s) {
			expired = append(expired, id)
			delete(p.sessions, id)
		}
	}
	p.mu.Unlock()

	for _, id := range expired {
		p.hub.Publish(session.Event{SessionID: id})
	}
	return len(expired)
}

func (p *Provider) expired(s *domain.Session) bool {
	return p.opts.Now().Sub(s.CreatedAt) >= p.opts.SessionTimeout
}

func (p *Provider) open(user *domain.User) *domain.Session {
	s := &domain.Session{ID: uuid.NewString(), User: user, CreatedAt: p.opts.Now()}

	p.mu.Lock()
	p.sessions[s.ID] = s
	p.mu.Unlock()

	p.hub.Publish(session.Event{SessionID: s.ID, User: user})
	cp := *s
	return &cp
}

func recordAuth(event string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.AuthEvents.WithLabelValues(event, result).Inc()
}
