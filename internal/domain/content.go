package domain

import "time"

// MonthGroups are the valid values of a content's schedule group.
var MonthGroups = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// ValidMonthGroup reports whether g is a known month group. The empty
// string is allowed: content without a month assignment.
func ValidMonthGroup(g string) bool {
	if g == "" {
		return true
	}
	for _, m := range MonthGroups {
		if g == m {
			return true
		}
	}
	return false
}

// Content is a content asset's metadata. The asset itself lives in external
// blob storage; URI points at it.
type Content struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"displayName"`
	ScheduleGroup string    `json:"scheduleGroup"` // Month group, e.g. "mar". Denormalized.
	URI           string    `json:"uri"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (c *Content) Touch() {
	c.UpdatedAt = time.Now()
}
