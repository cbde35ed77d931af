package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/signboardapp/signboard-server/internal/domain"
	"github.com/signboardapp/signboard-server/internal/linkset"
)

// Link application for the device↔tag and schedule↔tag relationships.
//
// Both sides of a link live in the documents themselves (Device.LinkedTags
// holds tag IDs, Tag.LinkedDevices holds device IDs). Applying a link-set
// diff therefore rewrites the owning document and every touched tag in ONE
// Badger transaction: either every side of every link updates, or none do.

// ApplyDeviceLinks applies a link-set diff to a device's tag links.
// Returns ErrNotFound (wrapped with the offending ID) if the device or any
// referenced tag does not exist; no writes survive a failed lookup.
func (s *Store) ApplyDeviceLinks(ctx context.Context, deviceID string, toUnlink, toLink []string) (*domain.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(toUnlink) == 0 && len(toLink) == 0 {
		return s.Devices.Get(ctx, deviceID)
	}

	var device domain.Device
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, devicePrefix+deviceID, &device); err != nil {
			return fmt.Errorf("device %s: %w", deviceID, err)
		}

		now := time.Now()

		for _, tagID := range toUnlink {
			tag, err := s.loadTagForLink(txn, tagID)
			if err != nil {
				return err
			}
			tag.LinkedDevices = linkset.Remove(tag.LinkedDevices, deviceID)
			tag.UpdatedAt = now
			if err := setJSON(txn, tagPrefix+tag.ID, tag); err != nil {
				return err
			}
			device.LinkedTags = linkset.Remove(device.LinkedTags, tagID)
		}

		for _, tagID := range toLink {
			tag, err := s.loadTagForLink(txn, tagID)
			if err != nil {
				return err
			}
			tag.LinkedDevices = linkset.Add(tag.LinkedDevices, deviceID)
			tag.UpdatedAt = now
			if err := setJSON(txn, tagPrefix+tag.ID, tag); err != nil {
				return err
			}
			device.LinkedTags = linkset.Add(device.LinkedTags, tagID)
		}

		device.UpdatedAt = now
		return setJSON(txn, devicePrefix+deviceID, &device)
	})
	if err != nil {
		return nil, err
	}

	return &device, nil
}

// ApplyScheduleLinks applies a link-set diff to a schedule's assignment tags.
// Same atomicity contract as ApplyDeviceLinks.
func (s *Store) ApplyScheduleLinks(ctx context.Context, scheduleID string, toUnlink, toLink []string) (*domain.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(toUnlink) == 0 && len(toLink) == 0 {
		return s.Schedules.Get(ctx, scheduleID)
	}

	var schedule domain.Schedule
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, schedulePrefix+scheduleID, &schedule); err != nil {
			return fmt.Errorf("schedule %s: %w", scheduleID, err)
		}

		now := time.Now()

		for _, tagID := range toUnlink {
			tag, err := s.loadTagForLink(txn, tagID)
			if err != nil {
				return err
			}
			tag.LinkedSchedules = linkset.Remove(tag.LinkedSchedules, scheduleID)
			tag.UpdatedAt = now
			if err := setJSON(txn, tagPrefix+tag.ID, tag); err != nil {
				return err
			}
			schedule.AssignmentTags = linkset.Remove(schedule.AssignmentTags, tagID)
		}

		for _, tagID := range toLink {
			tag, err := s.loadTagForLink(txn, tagID)
			if err != nil {
				return err
			}
			tag.LinkedSchedules = linkset.Add(tag.LinkedSchedules, scheduleID)
			tag.UpdatedAt = now
			if err := setJSON(txn, tagPrefix+tag.ID, tag); err != nil {
				return err
			}
			schedule.AssignmentTags = linkset.Add(schedule.AssignmentTags, tagID)
		}

		schedule.UpdatedAt = now
		return setJSON(txn, schedulePrefix+scheduleID, &schedule)
	})
	if err != nil {
		return nil, err
	}

	return &schedule, nil
}

// DeleteTagCascade deletes a tag and removes its ID from every device and
// schedule that references it, in one transaction. The back-reference lists
// on the tag tell us exactly which documents to touch.
func (s *Store) DeleteTagCascade(ctx context.Context, tagID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var tag domain.Tag
		if err := getJSON(txn, tagPrefix+tagID, &tag); err != nil {
			return fmt.Errorf("tag %s: %w", tagID, err)
		}

		now := time.Now()

		for _, deviceID := range tag.LinkedDevices {
			var device domain.Device
			if err := getJSON(txn, devicePrefix+deviceID, &device); err != nil {
				// Stale back-reference; nothing to detach.
				continue
			}
			device.LinkedTags = linkset.Remove(device.LinkedTags, tagID)
			device.UpdatedAt = now
			if err := setJSON(txn, devicePrefix+deviceID, &device); err != nil {
				return err
			}
		}

		for _, scheduleID := range tag.LinkedSchedules {
			var schedule domain.Schedule
			if err := getJSON(txn, schedulePrefix+scheduleID, &schedule); err != nil {
				continue
			}
			schedule.AssignmentTags = linkset.Remove(schedule.AssignmentTags, tagID)
			schedule.UpdatedAt = now
			if err := setJSON(txn, schedulePrefix+scheduleID, &schedule); err != nil {
				return err
			}
		}

		// Remove the display name index entry, then the tag itself.
		idxKey := tagPrefix + "idx:displayName:" + normalizeName(tag.DisplayName)
		if err := txn.Delete([]byte(idxKey)); err != nil {
			return fmt.Errorf("failed to delete tag index: %w", err)
		}

		return txn.Delete([]byte(tagPrefix + tagID))
	})
}

// DeleteDeviceCascade deletes a device and drops its ID from every tag's
// LinkedDevices back-reference, plus the MAC index entry, atomically.
func (s *Store) DeleteDeviceCascade(ctx context.Context, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var device domain.Device
		if err := getJSON(txn, devicePrefix+deviceID, &device); err != nil {
			return fmt.Errorf("device %s: %w", deviceID, err)
		}

		now := time.Now()
		for _, tagID := range device.LinkedTags {
			var tag domain.Tag
			if err := getJSON(txn, tagPrefix+tagID, &tag); err != nil {
				continue
			}
			tag.LinkedDevices = linkset.Remove(tag.LinkedDevices, deviceID)
			tag.UpdatedAt = now
			if err := setJSON(txn, tagPrefix+tagID, &tag); err != nil {
				return err
			}
		}

		idxKey := devicePrefix + "idx:macAddress:" + normalizeMAC(device.MACAddress)
		if err := txn.Delete([]byte(idxKey)); err != nil {
			return fmt.Errorf("failed to delete device index: %w", err)
		}

		return txn.Delete([]byte(devicePrefix + deviceID))
	})
}

// DeleteScheduleCascade deletes a schedule and drops its ID from every tag's
// LinkedSchedules back-reference, plus the display name index, atomically.
func (s *Store) DeleteScheduleCascade(ctx context.Context, scheduleID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var schedule domain.Schedule
		if err := getJSON(txn, schedulePrefix+scheduleID, &schedule); err != nil {
			return fmt.Errorf("schedule %s: %w", scheduleID, err)
		}

		now := time.Now()
		for _, tagID := range schedule.AssignmentTags {
			var tag domain.Tag
			if err := getJSON(txn, tagPrefix+tagID, &tag); err != nil {
				continue
			}
			tag.LinkedSchedules = linkset.Remove(tag.LinkedSchedules, scheduleID)
			tag.UpdatedAt = now
			if err := setJSON(txn, tagPrefix+tagID, &tag); err != nil {
				return err
			}
		}

		idxKey := schedulePrefix + "idx:displayName:" + normalizeName(schedule.DisplayName)
		if err := txn.Delete([]byte(idxKey)); err != nil {
			return fmt.Errorf("failed to delete schedule index: %w", err)
		}

		return txn.Delete([]byte(schedulePrefix + scheduleID))
	})
}

// loadTagForLink fetches a tag inside a link transaction, wrapping ErrNotFound
// with the ID so the caller can report which link target was missing.
func (s *Store) loadTagForLink(txn *badger.Txn, tagID string) (*domain.Tag, error) {
	var tag domain.Tag
	if err := getJSON(txn, tagPrefix+tagID, &tag); err != nil {
		return nil, fmt.Errorf("tag %s: %w", tagID, err)
	}
	return &tag, nil
}
