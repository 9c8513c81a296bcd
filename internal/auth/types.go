package auth

import "time"

// Identity is who an operator is, as resolved at login. Rich profile fields
// (role, permissions) come from the profile directory; there is no second
// "current user" seeded anywhere else.
type Identity struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// Session is the authenticated state. The gate has exactly two states:
// anonymous and authenticated; there is no expiry and no persistence.
type Session struct {
	Identity
	LoggedInAt time.Time `json:"logged_in_at"`
	Token      string    `json:"token,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
}
