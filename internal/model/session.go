package model

import "time"

// Session is a server-held record associating an opaque cookie token with an
// authenticated user. The token is the primary key — random, unguessable,
// and meaningless on its own; everything else lives server-side so logout
// and expiry are authoritative (unlike a stateless token, which stays valid
// until it expires no matter what the server thinks).
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
