package domain

import "time"

// Tag is a categorization group for devices and schedules.
//
// LinkedDevices and LinkedSchedules are the reciprocal back-references of
// the device→tag and schedule→tag link sets. They are only ever mutated by
// the store's link application, in the same transaction as the owning
// entity's own link list.
type Tag struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"displayName"`
	LinkedDevices   []string  `json:"linkedDevices"`
	LinkedSchedules []string  `json:"linkedSchedules"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}
