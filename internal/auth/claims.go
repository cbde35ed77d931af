package auth

import (
	"time"

	"github.com/signboardapp/signboard-server/internal/domain"
)

// AccessClaims represents the claims stored in a PASETO access token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type AccessClaims struct {
	ProfileID string        `json:"profile_id"`
	Email     string        `json:"email"`
	Roles     []domain.Role `json:"roles"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// HasRole reports whether the claims include the given role.
func (c *AccessClaims) HasRole(role domain.Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the claims carry the admin role.
func (c *AccessClaims) IsAdmin() bool {
	return c.HasRole(domain.RoleAdmin)
}
