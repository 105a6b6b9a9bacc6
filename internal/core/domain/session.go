package domain

import "time"

// TokenPayload is what a bearer token asserts about its holder.
type TokenPayload struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// Session is the stateless proof of authentication returned by login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// WebSession is the gateway-side session kept behind the session cookie. ID is
// the opaque cookie value; AccountID, Email and Role mirror the token payload.
type WebSession struct {
	ID          string    `json:"sessionId"`
	AccountID   string    `json:"id"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired reports whether the web session is past its expiry at now.
func (s WebSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
