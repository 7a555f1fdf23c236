package session

import "time"

// User is the display identity attached to a session. Credentials never reach
// the client; the backend hands over a bearer token and this profile.
type User struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Session is the authoritative in-memory auth state. It is written only by
// Login/Signup/Logout/Hydrate; durable storage is a write-through copy
// consulted at hydration, never a second writer.
type Session struct {
	User           *User     `json:"user,omitempty"`
	Token          string    `json:"token"`
	LoginTimestamp time.Time `json:"login_timestamp,omitempty"`
}

// Readiness is the tri-state answer protected views get from AwaitReady.
// TimedOut means a token exists somewhere but was never confirmed inside the
// wait window; callers treat it as ready and let the API layer be the final
// arbiter of token validity.
type Readiness int

const (
	Ready Readiness = iota
	Unauthenticated
	TimedOut
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "ready"
	case Unauthenticated:
		return "unauthenticated"
	case TimedOut:
		return "timed_out"
	}
	return "unknown"
}
