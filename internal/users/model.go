// Package users manages user accounts and their refresh tokens: registration,
// profile access, preferences, and the persistence contract the auth and
// password workflows build on.
package users

import (
	"encoding/json"
	"time"
)

// User represents a registered account. PasswordHash holds the colon-joined
// "hash:salt" credential produced by the security hasher.
type User struct {
	ID           int64           `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Name         *string         `json:"name,omitempty"`
	Preferences  json.RawMessage `json:"preferences,omitempty"`
	IsActive     bool            `json:"is_active"`
	LastLogin    *time.Time      `json:"last_login,omitempty"`
	LastNotified *time.Time      `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// DisplayName returns the user's name, falling back to the email local part.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}

// RefreshToken is a persisted opaque credential used to mint new bearer
// tokens. Single-use: rotated away on refresh, deleted on revoke.
type RefreshToken struct {
	ID        int64     `json:"-"`
	UserID    int64     `json:"-"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"-"`
}

// IsExpired reports whether the token's lifetime has elapsed.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// AuthResult is the outcome of a successful login, registration, or refresh.
// Token carries the "Bearer " prefix so clients can use it verbatim in the
// Authorization header.
type AuthResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	UserID       int64  `json:"userId"`
	UserEmail    string `json:"userEmail"`
}

// --- DTOs ---

// RegisterInput is the validated input for creating an account.
type RegisterInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}
