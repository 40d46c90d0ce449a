// Package auth contains domain-level types for credentials and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"strings"
	"time"
)

// User is the stored credential record for a principal.
// PasswordHash holds the salted digest produced by the credential hasher; the
// plaintext password is never stored.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the non-secret identity cached in a session.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// SessionState is the typed session payload. Only non-secret identity
// fields live here; credentials never do.
type SessionState struct {
	UserID  string   `json:"user_id,omitempty"`
	Profile *Profile `json:"user,omitempty"`
}

// IsAuthenticated reports whether a principal is bound to the state.
func (s SessionState) IsAuthenticated() bool { return strings.TrimSpace(s.UserID) != "" }

// Clone returns a deep copy so stored records never alias request views.
func (s SessionState) Clone() SessionState {
	out := SessionState{UserID: s.UserID}
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	return out
}

// SignIn binds the given user to the state, replacing any previous principal.
func (s *SessionState) SignIn(u User) {
	s.UserID = u.ID
	s.Profile = &Profile{Username: u.Username, Email: u.Email}
}

// SessionRecord is what the session store keeps per session id.
type SessionRecord struct {
	ID        string
	State     SessionState
	ExpiresAt time.Time
}

// Expired reports whether the record is no longer valid at now.
// A record is valid strictly before ExpiresAt.
func (r SessionRecord) Expired(now time.Time) bool { return !now.Before(r.ExpiresAt) }

// SessionView is the request-scoped, mutable view of a session. It is
// discarded at the end of the request unless persisted.
type SessionView struct {
	// ID is the bound session id; empty until the first persist.
	ID    string
	State SessionState
}

// Bound reports whether the view refers to a stored session.
func (v *SessionView) Bound() bool { return v != nil && v.ID != "" }

// Reset clears the payload and unbinds the id.
func (v *SessionView) Reset() {
	v.ID = ""
	v.State = SessionState{}
}
