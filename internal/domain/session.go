package domain

import "time"

// RefreshToken is a stored, hashed refresh token. The raw token is only ever
// held by the client; we keep the hash so a database leak can't mint sessions.
type RefreshToken struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	TokenHash string    `json:"tokenHash"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
