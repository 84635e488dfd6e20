package types

import "time"

// Identity is a local principal. Rows are created on first successful
// authentication, whether from the directory or the local credential
// store, and the mapped attribute fields refresh on every later one.
// The privilege flags are owned locally and survive refreshes.
type Identity struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// Session is a time-bounded operator session with sliding expiry.
type Session struct {
	ID         string    `json:"-"`
	Username   string    `json:"username"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
