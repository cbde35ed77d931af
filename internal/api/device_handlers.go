package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/signboardapp/signboard-server/internal/domain"
	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
)

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listDevices",
		Method:      http.MethodGet,
		Path:        "/api/v1/devices",
		Summary:     "List devices",
		Description: "Returns a filtered, paginated list of display devices",
		Tags:        []string{"Devices"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListDevices)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDevice",
		Method:      http.MethodGet,
		Path:        "/api/v1/devices/{id}",
		Summary:     "Get device",
		Description: "Returns a device by ID",
		Tags:        []string{"Devices"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetDevice)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateDevice",
		Method:      http.MethodPatch,
		Path:        "/api/v1/devices/{id}",
		Summary:     "Update device",
		Description: "Renames a device and/or reconciles its linked tags (admin only)",
		Tags:        []string{"Devices"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateDevice)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteDevice",
		Method:      http.MethodDelete,
		Path:        "/api/v1/devices/{id}",
		Summary:     "Delete device",
		Description: "Deletes a device and detaches it from all tags (admin only)",
		Tags:        []string{"Devices"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteDevice)
}

// === DTOs ===

// DeviceOutput wraps a device for Huma.
type DeviceOutput struct {
	Body domain.Device
}

// ListDevicesOutput wraps a device page for Huma.
type ListDevicesOutput struct {
	Body store.PaginatedResult[domain.Device]
}

// GetDeviceInput contains parameters for getting a device.
type GetDeviceInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Device ID"`
}

// UpdateDeviceRequest is the request body for updating a device. A non-nil
// linkedTags is the complete requested tag set.
type UpdateDeviceRequest struct {
	DisplayName *string   `json:"displayName,omitempty" doc:"Device name"`
	LinkedTags  *[]string `json:"linkedTags,omitempty" doc:"Requested tag ID set"`
}

// UpdateDeviceInput wraps the update device request for Huma.
type UpdateDeviceInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Device ID"`
	Body          UpdateDeviceRequest
}

// === Handlers ===

func (s *Server) handleListDevices(ctx context.Context, input *ListInput) (*ListDevicesOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Device.List(ctx, input.queryParams())
	if err != nil {
		return nil, err
	}

	return &ListDevicesOutput{Body: *page}, nil
}

func (s *Server) handleGetDevice(ctx context.Context, input *GetDeviceInput) (*DeviceOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	device, err := s.services.Device.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &DeviceOutput{Body: *device}, nil
}

func (s *Server) handleUpdateDevice(ctx context.Context, input *UpdateDeviceInput) (*DeviceOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	device, err := s.services.Device.Edit(ctx, input.ID, service.EditDeviceRequest{
		DisplayName: input.Body.DisplayName,
		LinkedTags:  input.Body.LinkedTags,
	})
	if err != nil {
		return nil, err
	}

	return &DeviceOutput{Body: *device}, nil
}

func (s *Server) handleDeleteDevice(ctx context.Context, input *GetDeviceInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Device.Delete(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Device deleted"}}, nil
}
