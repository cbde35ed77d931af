// Package domain defines the core entities of the signboard server.
package domain

import "time"

// Role is an application role attached to a profile.
type Role string

// Application roles.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRole reports whether r is a known application role.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// Profile is a user account.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Roles       []Role    `json:"roles"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Argon2id encoded hash. Never serialized to clients; the json tag
	// keeps it out of API DTOs by convention (DTOs copy fields explicitly),
	// but it must round-trip through the store.
	PasswordHash string `json:"passwordHash,omitempty"`
}

// HasRole reports whether the profile carries the given role.
func (p *Profile) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the profile has the ADMIN role.
func (p *Profile) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// Touch updates the UpdatedAt timestamp.
func (p *Profile) Touch() {
	p.UpdatedAt = time.Now()
}
