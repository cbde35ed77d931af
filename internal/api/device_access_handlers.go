package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/signboardapp/signboard-server/internal/domain"
	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
)

func (s *Server) registerDeviceAccessRoutes() {
	// Telemetry ingest is unauthenticated: device runners only know their
	// MAC address. Unknown MACs register themselves.
	huma.Register(s.api, huma.Operation{
		OperationID: "reportDeviceAccess",
		Method:      http.MethodPost,
		Path:        "/api/v1/device-accesses",
		Summary:     "Report device access",
		Description: "Records a telemetry ping from a device runner, auto-registering unknown devices",
		Tags:        []string{"Device Access"},
	}, s.handleReportDeviceAccess)

	huma.Register(s.api, huma.Operation{
		OperationID: "listDeviceAccesses",
		Method:      http.MethodGet,
		Path:        "/api/v1/device-accesses",
		Summary:     "List device accesses",
		Description: "Returns a filtered, paginated view of the device access history",
		Tags:        []string{"Device Access"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListDeviceAccesses)
}

// === DTOs ===

// DeviceAccessReport is the request body for a telemetry ping. Usage
// figures are optional; runners without metrics report zeroes.
type DeviceAccessReport struct {
	MACAddress  string  `json:"macAddress" doc:"Reporting device MAC address"`
	IP          string  `json:"ip" doc:"Reporting device IP address"`
	CPUUsage    float64 `json:"cpuUsage,omitempty" doc:"CPU usage percentage (0-100)"`
	MemoryUsage float64 `json:"memoryUsage,omitempty" doc:"Memory usage percentage (0-100)"`
}

// ReportDeviceAccessInput wraps the telemetry report for Huma.
type ReportDeviceAccessInput struct {
	Body DeviceAccessReport
}

// DeviceAccessOutput wraps a recorded access for Huma.
type DeviceAccessOutput struct {
	Body domain.DeviceAccess
}

// ListDeviceAccessesOutput wraps an access history page for Huma.
type ListDeviceAccessesOutput struct {
	Body store.PaginatedResult[domain.DeviceAccess]
}

// === Handlers ===

func (s *Server) handleReportDeviceAccess(ctx context.Context, input *ReportDeviceAccessInput) (*DeviceAccessOutput, error) {
	access, err := s.services.Device.RecordAccess(ctx, service.AccessReport{
		MACAddress:  input.Body.MACAddress,
		IP:          input.Body.IP,
		CPUUsage:    input.Body.CPUUsage,
		MemoryUsage: input.Body.MemoryUsage,
	})
	if err != nil {
		return nil, err
	}

	return &DeviceAccessOutput{Body: *access}, nil
}

func (s *Server) handleListDeviceAccesses(ctx context.Context, input *ListInput) (*ListDeviceAccessesOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Device.ListAccesses(ctx, input.queryParams())
	if err != nil {
		return nil, err
	}

	return &ListDeviceAccessesOutput{Body: *page}, nil
}
