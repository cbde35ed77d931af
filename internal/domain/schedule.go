package domain

import (
	"regexp"
	"time"
)

// schedulePeriod matches a "YYYY/MM" period key, e.g. "2026/03".
var schedulePeriod = regexp.MustCompile(`^20\d{2}/\d{2}$`)

// ValidSchedulePeriod reports whether key is a well-formed period key.
func ValidSchedulePeriod(key string) bool {
	return schedulePeriod.MatchString(key)
}

// ScheduleContent is one playlist entry: a content reference and how long
// it stays on screen.
type ScheduleContent struct {
	ContentID string `json:"content"`
	Interval  int    `json:"interval"` // Display time in seconds.
}

// DefaultContentInterval is applied when a playlist entry has no interval.
const DefaultContentInterval = 5

// Schedule is a time-boxed playlist assigned to device tags.
//
// AssignmentTags mirrors Device.LinkedTags: every tag listed here carries
// this schedule's ID in its LinkedSchedules back-reference, maintained by
// the same reconciliation path.
type Schedule struct {
	ID             string            `json:"id"`
	DisplayName    string            `json:"displayName"`
	ScheduleGroup  string            `json:"scheduleGroup"` // Period key "YYYY/MM".
	AssignmentTags []string          `json:"assignmentTags"`
	Contents       []ScheduleContent `json:"contents"`
	Published      bool              `json:"published"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (s *Schedule) Touch() {
	s.UpdatedAt = time.Now()
}
