package domain

import "time"

// Identity is what the session middleware learns from a verified token.
type Identity struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// SessionClaims is the payload carried by a signed session token.
type SessionClaims struct {
	UserID    string
	Email     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity projects the claims onto the request identity.
func (c SessionClaims) Identity() Identity {
	return Identity{
		UserID:    c.UserID,
		Email:     c.Email,
		TokenID:   c.TokenID,
		ExpiresAt: c.ExpiresAt,
	}
}
