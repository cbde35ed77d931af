package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signboardapp/signboard-server/internal/domain"
)

func TestProfile_Roles(t *testing.T) {
	p := &domain.Profile{Roles: []domain.Role{domain.RoleUser}}
	assert.True(t, p.HasRole(domain.RoleUser))
	assert.False(t, p.IsAdmin())

	p.Roles = append(p.Roles, domain.RoleAdmin)
	assert.True(t, p.IsAdmin())
}

func TestValidRole(t *testing.T) {
	assert.True(t, domain.ValidRole(domain.RoleUser))
	assert.True(t, domain.ValidRole(domain.RoleAdmin))
	assert.False(t, domain.ValidRole(domain.Role("ROOT")))
}

func TestValidSchedulePeriod(t *testing.T) {
	assert.True(t, domain.ValidSchedulePeriod("2026/03"))
	assert.True(t, domain.ValidSchedulePeriod("2099/12"))
	assert.False(t, domain.ValidSchedulePeriod("1999/03"))
	assert.False(t, domain.ValidSchedulePeriod("2026-03"))
	assert.False(t, domain.ValidSchedulePeriod("2026/3"))
	assert.False(t, domain.ValidSchedulePeriod(""))
}

func TestValidMonthGroup(t *testing.T) {
	assert.True(t, domain.ValidMonthGroup("jan"))
	assert.True(t, domain.ValidMonthGroup("dec"))
	assert.True(t, domain.ValidMonthGroup(""), "unassigned content is allowed")
	assert.False(t, domain.ValidMonthGroup("January"))
	assert.False(t, domain.ValidMonthGroup("13"))
}
