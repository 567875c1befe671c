package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reelscout/reelscout/src/internal/domain"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrEmailInUse, "Email is already in use"},
		{domain.ErrInvalidEmail, "Invalid email address"},
		{domain.ErrWeakPassword, "Password is too weak"},
		{domain.ErrPasswordMismatch, "Passwords do not match"},
		{domain.ErrInvalidCredentials, "Invalid email or password"},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidCredentials), "Invalid email or password"},
		{domain.ErrUnauthenticated, "Please sign in to continue"},
		{errors.New("disk on fire"), "An error occurred"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Message(tt.err), tt.err.Error())
	}
}
