package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelscout/reelscout/src/internal/adapters/memory"
	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/session"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestProvider(t *testing.T) (*Provider, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	p := NewProvider(memory.NewAccountRepo(), Options{
		SessionTimeout: time.Hour,
		BcryptCost:     bcrypt.MinCost,
		Now:            clock.Now,
	})
	return p, clock
}

func TestProvider_SignUpThenSignIn(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	s, err := p.SignUp(ctx, " alice@example.com ", "secret1", "secret1")
	require.NoError(t, err)
	require.NotNil(t, s.User)
	assert.Equal(t, "alice@example.com", s.User.Email)
	assert.NotEmpty(t, s.User.ID)

	again, err := p.SignIn(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, again.User.ID)
	assert.NotEqual(t, s.ID, again.ID, "each sign-in opens its own session")
}

func TestProvider_SignUpErrors(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	_, err := p.SignUp(ctx, "taken@example.com", "secret1", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		want     error
	}{
		{"invalid email", "not-an-email", "secret1", "secret1", domain.ErrInvalidEmail},
		{"mismatch", "bob@example.com", "secret1", "secret2", domain.ErrPasswordMismatch},
		{"weak", "bob@example.com", "abc", "abc", domain.ErrWeakPassword},
		{"email in use", "Taken@Example.com", "secret1", "secret1", domain.ErrEmailInUse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := p.SignUp(ctx, tt.email, tt.password, tt.confirm)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, s)
		})
	}
}

func TestProvider_SignInRejectsBadCredentials(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	_, err := p.SignUp(ctx, "alice@example.com", "secret1", "secret1")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "garbage", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestProvider_PublishesSessionEvents(t *testing.T) {
	p, _ := newTestProvider(t)
	var events []session.Event
	unsubscribe := p.Subscribe(func(e session.Event) { events = append(events, e) })
	defer unsubscribe()

	s, err := p.SignUp(context.Background(), "alice@example.com", "secret1", "secret1")
	require.NoError(t, err)
	p.SignOut(s.ID)
	p.SignOut(s.ID)

	require.Len(t, events, 2, "second sign-out of the same session is a no-op")
	assert.Equal(t, s.ID, events[0].SessionID)
	require.NotNil(t, events[0].User)
	assert.Equal(t, s.User.ID, events[0].User.ID)
	assert.Equal(t, s.ID, events[1].SessionID)
	assert.Nil(t, events[1].User)
}

func TestProvider_SessionLookupAndExpiry(t *testing.T) {
	p, clock := newTestProvider(t)
	var signedOut []string
	p.Subscribe(func(e session.Event) {
		if e.User == nil {
			signedOut = append(signedOut, e.SessionID)
		}
	})

	s, err := p.SignInExternal(domain.User{ID: "oidc|42", Email: "ext@example.com"})
	require.NoError(t, err)

	got, err := p.Session(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "oidc|42", got.User.ID)

	_, err = p.Session("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	clock.Advance(time.Hour)
	_, err = p.Session(s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "expired sessions are not served")

	assert.Equal(t, 1, p.ExpireSessions())
	assert.Equal(t, 0, p.ExpireSessions())
	assert.Equal(t, []string{s.ID}, signedOut)
}

func TestProvider_SignInExternalRequiresSubject(t *testing.T) {
	p, _ := newTestProvider(t)
	_, err := p.SignInExternal(domain.User{Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestProvider_FeedsSessionObserver(t *testing.T) {
	p, _ := newTestProvider(t)
	obs := session.NewObserver(p)
	defer obs.Close()

	s, err := p.SignUp(context.Background(), "alice@example.com", "secret1", "secret1")
	require.NoError(t, err)
	require.NotNil(t, obs.Current(s.ID))
	assert.Equal(t, s.User.ID, obs.Current(s.ID).ID)

	p.SignOut(s.ID)
	assert.Nil(t, obs.Current(s.ID))
}
