package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reelscout/reelscout/src/internal/logging"
)

// Claims identify a browser session.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenManager signs the session cookie.
type TokenManager struct {
	secret  []byte
	timeout time.Duration
}

// NewTokenManager uses secret for HS256 signatures. An empty secret is
// replaced by a random one, which invalidates cookies on restart.
func NewTokenManager(secret string, timeout time.Duration) (*TokenManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logging.Warn().Msg("[Auth] JWT_SECRET not set; using an ephemeral signing key")
	}
	return &TokenManager{secret: key, timeout: timeout}, nil
}

func (m *TokenManager) Issue(sessionID, userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates token and returns its claims.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if claims.SessionID == "" {
		return nil, errors.New("invalid session token: missing sid")
	}
	return claims, nil
}

// Timeout is the lifetime of issued tokens.
func (m *TokenManager) Timeout() time.Duration {
	return m.timeout
}
