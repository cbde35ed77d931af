package domain

import "time"

// Device is a signage endpoint, identified by its MAC address.
//
// LinkedTags holds the IDs of the tags this device belongs to. The
// relationship is denormalized: every tag in LinkedTags carries this
// device's ID in its LinkedDevices back-reference. Edits must go through
// the link reconciliation path so both sides stay symmetric.
type Device struct {
	ID               string    `json:"id"`
	MACAddress       string    `json:"macAddress"`
	DisplayName      string    `json:"displayName"`
	LinkedTags       []string  `json:"linkedTags"`
	LastConnectionAt time.Time `json:"lastConnectionAt"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (d *Device) Touch() {
	d.UpdatedAt = time.Now()
}

// SeenNow records a device connection.
func (d *Device) SeenNow() {
	d.LastConnectionAt = time.Now()
	d.Touch()
}

// DeviceAccess is one connection-telemetry report from a device runner.
// Access history is append-only and lives in its own relational log, not in
// the document store.
type DeviceAccess struct {
	ID          string    `json:"id"`
	MACAddress  string    `json:"macAddress"`
	IP          string    `json:"ip"`
	CPUUsage    float64   `json:"cpuUsage"`
	MemoryUsage float64   `json:"memoryUsage"`
	CreatedAt   time.Time `json:"createdAt"`
}
