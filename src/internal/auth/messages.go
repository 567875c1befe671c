package auth

import (
	"errors"

	"github.com/reelscout/reelscout/src/internal/domain"
)

// Message maps an identity error to the text shown to the visitor.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrEmailInUse):
		return "Email is already in use"
	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email address"
	case errors.Is(err, domain.ErrWeakPassword):
		return "Password is too weak"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return "Passwords do not match"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrSessionNotFound):
		return "Please sign in to continue"
	default:
		return "An error occurred"
	}
}
