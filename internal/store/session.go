package store

import "github.com/google/uuid"

// Session is the tenancy key for every row in the store. It is a random
// token held by the client; there is no authentication behind it.
type Session struct {
	ID string
}

// NewSession generates a fresh random session.
func NewSession() Session {
	return Session{ID: uuid.NewString()}
}

// ParseSession accepts a previously issued session token.
func ParseSession(raw string) (Session, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return Session{}, false
	}
	return Session{ID: id.String()}, true
}

// SessionOrNew returns the session for raw, or a new one when raw is empty
// or malformed. created reports whether a new session was generated.
func SessionOrNew(raw string) (s Session, created bool) {
	if s, ok := ParseSession(raw); ok {
		return s, false
	}
	return NewSession(), true
}
