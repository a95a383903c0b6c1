package model

import (
	"strings"
	"time"
)

// Role is the closed set of roles a user can hold. Anything outside this
// set is rejected at the boundary by ParseRole.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// TokenKind discriminates the two token flavours. Verification checks the
// kind explicitly so an access token can never be replayed as a refresh
// token or vice versa.
type TokenKind string

const (
	TokenAccess  TokenKind = "ACCESS"
	TokenRefresh TokenKind = "REFRESH"
)

// User is the directory record persisted under the user's canonical email.
// The password hash and the API key ciphertext are opaque blobs here; only
// the security package produces or consumes them.
type User struct {
	Email            string    `json:"email"`
	PasswordHash     string    `json:"password_hash"`
	APIKeyCiphertext string    `json:"api_key"`
	Role             Role      `json:"role"`
	Enabled          bool      `json:"enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserUpdate is a partial update where a nil field means "keep the existing
// value". Callers resolve it with Merge so every mutation rewrites the full
// record and no implicit fallback chains exist.
type UserUpdate struct {
	PasswordHash     *string
	APIKeyCiphertext *string
	Role             *Role
	Enabled          *bool
}

// Merge applies upd to u and returns the resulting record. Pure function;
// neither input is modified.
func (u User) Merge(upd UserUpdate) User {
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.APIKeyCiphertext != nil {
		u.APIKeyCiphertext = *upd.APIKeyCiphertext
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Enabled != nil {
		u.Enabled = *upd.Enabled
	}
	return u
}

// CanonicalEmail lower-cases and trims an email address. Every store key
// derived from an email goes through this, making the canonical form the
// directory's unique key.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
