package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/signboardapp/signboard-server/internal/domain"
	domainerrors "github.com/signboardapp/signboard-server/internal/errors"
	"github.com/signboardapp/signboard-server/internal/id"
	"github.com/signboardapp/signboard-server/internal/linkset"
	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/store/accesslog"
	"github.com/signboardapp/signboard-server/internal/validation"
)

// Filter allowlists for the device surfaces.
var (
	deviceFilterFields = []string{"macAddress", "displayName"}
	accessFilterFields = []string{"macAddress", "ip"}
)

// DeviceService manages signage devices and their telemetry.
//
// Devices are not created through an admin form: a panel announces itself
// with its first access report and appears in the inventory automatically.
// Admins then name it and link it to tags.
type DeviceService struct {
	store     *store.Store
	accessLog *accesslog.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewDeviceService creates a new device service.
func NewDeviceService(s *store.Store, accessLog *accesslog.Store, v *validation.Validator, logger *slog.Logger) *DeviceService {
	return &DeviceService{
		store:     s,
		accessLog: accessLog,
		validator: v,
		logger:    logger,
	}
}

// EditDeviceRequest is a partial device update. A non-nil LinkedTags is the
// complete requested link set; the service reconciles it against the stored
// one rather than overwriting blindly.
type EditDeviceRequest struct {
	DisplayName *string   `json:"displayName,omitempty" validate:"omitempty,max=120"`
	LinkedTags  *[]string `json:"linkedTags,omitempty"`
}

// AccessReport is one telemetry ping from a device runner.
type AccessReport struct {
	MACAddress  string  `json:"macAddress" validate:"required,mac"`
	IP          string  `json:"ip" validate:"required,ip"`
	CPUUsage    float64 `json:"cpuUsage" validate:"gte=0,lte=100"`
	MemoryUsage float64 `json:"memoryUsage" validate:"gte=0,lte=100"`
}

// List returns one page of devices matching the raw query parameters.
func (s *DeviceService) List(ctx context.Context, params query.Params) (*store.PaginatedResult[domain.Device], error) {
	desc := query.Normalize(params, query.WithAllowedFields(deviceFilterFields...))

	page, err := s.store.Devices.FindPage(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return page, nil
}

// Get returns one device by ID.
func (s *DeviceService) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	device, err := s.store.Devices.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("device %s not found", deviceID)
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return device, nil
}

// GetByMAC returns one device by MAC address.
func (s *DeviceService) GetByMAC(ctx context.Context, mac string) (*domain.Device, error) {
	device, err := s.store.Devices.GetByIndex(ctx, "macAddress", mac)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("device with MAC %s not found", mac)
		}
		return nil, fmt.Errorf("get device by MAC: %w", err)
	}
	return device, nil
}

// Edit applies a partial update. When LinkedTags is present, the requested
// set is diffed against the stored one and only the delta is applied, with
// both sides of every link updated in one transaction.
func (s *DeviceService) Edit(ctx context.Context, deviceID string, req EditDeviceRequest) (*domain.Device, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	device, err := s.store.Devices.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("device %s not found", deviceID)
		}
		return nil, fmt.Errorf("get device: %w", err)
	}

	if req.DisplayName != nil {
		device.DisplayName = *req.DisplayName
		device.Touch()
		if err := s.store.Devices.Update(ctx, deviceID, device); err != nil {
			return nil, fmt.Errorf("update device: %w", err)
		}
	}

	if req.LinkedTags != nil {
		toUnlink, toLink := linkset.Diff(device.LinkedTags, *req.LinkedTags)
		device, err = s.store.ApplyDeviceLinks(ctx, deviceID, toUnlink, toLink)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("a referenced tag does not exist").WithCause(err)
			}
			return nil, fmt.Errorf("apply device links: %w", err)
		}

		if s.logger != nil {
			s.logger.Info("Device links reconciled",
				"device_id", deviceID,
				"unlinked", toUnlink,
				"linked", toLink,
			)
		}
	}

	return device, nil
}

// Delete removes a device and detaches it from all tags.
func (s *DeviceService) Delete(ctx context.Context, deviceID string) error {
	if err := s.store.DeleteDeviceCascade(ctx, deviceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("device %s not found", deviceID)
		}
		return fmt.Errorf("delete device: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Device deleted", "device_id", deviceID)
	}
	return nil
}

// RecordAccess ingests a telemetry report. An unknown MAC registers a new
// device on the spot; a known one gets its last-connection timestamp bumped.
// The report itself is appended to the access log either way.
func (s *DeviceService) RecordAccess(ctx context.Context, report AccessReport) (*domain.DeviceAccess, error) {
	if err := s.validator.Validate(report); err != nil {
		return nil, err
	}
	report.MACAddress = canonicalMAC(report.MACAddress)

	device, err := s.store.Devices.GetByIndex(ctx, "macAddress", report.MACAddress)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if device, err = s.registerDevice(ctx, report.MACAddress); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("lookup device: %w", err)
	default:
		device.SeenNow()
		if err := s.store.Devices.Update(ctx, device.ID, device); err != nil {
			return nil, fmt.Errorf("update device connection: %w", err)
		}
	}

	accessID, err := id.Generate("acc")
	if err != nil {
		return nil, fmt.Errorf("generate access ID: %w", err)
	}

	access := &domain.DeviceAccess{
		ID:          accessID,
		MACAddress:  report.MACAddress,
		IP:          report.IP,
		CPUUsage:    report.CPUUsage,
		MemoryUsage: report.MemoryUsage,
		CreatedAt:   time.Now(),
	}
	if err := s.accessLog.Insert(ctx, access); err != nil {
		return nil, fmt.Errorf("append access log: %w", err)
	}

	return access, nil
}

// ListAccesses returns one page of access history.
func (s *DeviceService) ListAccesses(ctx context.Context, params query.Params) (*store.PaginatedResult[domain.DeviceAccess], error) {
	desc := query.Normalize(params, query.WithAllowedFields(accessFilterFields...))

	page, err := s.accessLog.FindPage(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("list device accesses: %w", err)
	}
	return page, nil
}

// registerDevice signs up a device that reported in with an unknown MAC.
func (s *DeviceService) registerDevice(ctx context.Context, mac string) (*domain.Device, error) {
	deviceID, err := id.Generate("dev")
	if err != nil {
		return nil, fmt.Errorf("generate device ID: %w", err)
	}

	now := time.Now()
	device := &domain.Device{
		ID:               deviceID,
		MACAddress:       mac,
		LinkedTags:       []string{},
		LastConnectionAt: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Devices.Create(ctx, deviceID, device); err != nil {
		// Concurrent first report from the same panel: use the winner.
		if errors.Is(err, store.ErrAlreadyExists) {
			return s.store.Devices.GetByIndex(ctx, "macAddress", mac)
		}
		return nil, fmt.Errorf("register device: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Device registered from first access report", "device_id", deviceID, "mac", mac)
	}
	return device, nil
}

// canonicalMAC brings a validated hardware address to lowercase colon form,
// so the same panel never registers twice under formatting variants.
func canonicalMAC(mac string) string {
	return strings.ToLower(strings.ReplaceAll(mac, "-", ":"))
}
