package domain

import (
	"strconv"
	"time"
)

// User is the identity the application sees for a signed-in visitor.
type User struct {
	ID          string `json:"id"` // account ID or OIDC subject
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Account is the credential record of the password identity provider.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

func (a *Account) User() *User {
	return &User{ID: a.ID, Email: a.Email}
}

// Session is owned by the identity provider; the web layer only observes it.
type Session struct {
	ID        string
	User      *User
	CreatedAt time.Time
}

// UserProfile mirrors users/{user}.
type UserProfile struct {
	UserID  string `json:"-"`
	Name    string `json:"name" validate:"max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=40"`
	Address string `json:"address" validate:"max=500"`
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
