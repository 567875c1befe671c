package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := m.Issue("sess-1", "user-1")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, time.Hour, m.Timeout())
}

func TestTokenManager_RejectsForeignAndExpiredTokens(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenManager("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("sess-1", "user-1")
	require.NoError(t, err)
	_, err = m.Parse(foreign)
	assert.Error(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SessionID: "sess-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Parse(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noSID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Parse(noSID)
	assert.ErrorContains(t, err, "missing sid")

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "s"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(unsigned)
	assert.Error(t, err)
}

func TestTokenManager_EmptySecretIsEphemeral(t *testing.T) {
	a, err := NewTokenManager("", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenManager("", time.Hour)
	require.NoError(t, err)

	token, err := a.Issue("sess-1", "user-1")
	require.NoError(t, err)
	_, err = a.Parse(token)
	assert.NoError(t, err)
	_, err = b.Parse(token)
	assert.Error(t, err)
}
