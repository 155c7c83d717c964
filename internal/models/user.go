package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthProvider identifies how a user authenticates.
type AuthProvider string

const (
	// AuthProviderLocal means password-based login.
	AuthProviderLocal AuthProvider = "local"
	// AuthProviderGoogle means Google OAuth login.
	AuthProviderGoogle AuthProvider = "google"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's email address (unique). Used for login and
	// notification delivery.
	Email string `json:"email"`

	// Username is the unique display name. For Google sign-ups it is derived
	// from the profile name with a numeric suffix on collision.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the password. Empty for OAuth users.
	PasswordHash string `json:"-"`

	// GoogleID is the Google account subject, set once the account is linked.
	GoogleID string `json:"-"`

	// Picture is the profile picture URL provided by Google, if any.
	Picture string `json:"picture,omitempty"`

	// Provider records which login method created or last linked the account.
	Provider AuthProvider `json:"provider"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last account mutation.
	UpdatedAt int64 `json:"updatedAt"`
}

// NewUser creates a local (password) user with a fresh ID and timestamps.
func NewUser(email, username, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Provider:     AuthProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
