package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/signboardapp/signboard-server/internal/domain"
	domainerrors "github.com/signboardapp/signboard-server/internal/errors"
	"github.com/signboardapp/signboard-server/internal/id"
	"github.com/signboardapp/signboard-server/internal/linkset"
	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/validation"
)

var scheduleFilterFields = []string{"displayName", "scheduleGroup"}

// ScheduleService manages time-boxed playlists and their tag assignments.
type ScheduleService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(s *store.Store, v *validation.Validator, logger *slog.Logger) *ScheduleService {
	return &ScheduleService{store: s, validator: v, logger: logger}
}

// ScheduleContentRequest is one playlist entry in a request. A zero interval
// gets the default display time.
type ScheduleContentRequest struct {
	ContentID string `json:"content" validate:"required"`
	Interval  int    `json:"interval" validate:"omitempty,gte=0,lte=86400"`
}

// CreateScheduleRequest contains new playlist data.
type CreateScheduleRequest struct {
	DisplayName    string                   `json:"displayName" validate:"required,max=120"`
	ScheduleGroup  string                   `json:"scheduleGroup" validate:"required,period"`
	AssignmentTags []string                 `json:"assignmentTags"`
	Contents       []ScheduleContentRequest `json:"contents" validate:"dive"`
	Published      bool                     `json:"published"`
}

// EditScheduleRequest is a partial playlist update. A non-nil AssignmentTags
// is the complete requested tag set, reconciled against the stored one.
type EditScheduleRequest struct {
	DisplayName    *string                   `json:"displayName,omitempty" validate:"omitempty,max=120"`
	ScheduleGroup  *string                   `json:"scheduleGroup,omitempty" validate:"omitempty,period"`
	AssignmentTags *[]string                 `json:"assignmentTags,omitempty"`
	Contents       *[]ScheduleContentRequest `json:"contents,omitempty" validate:"omitempty,dive"`
	Published      *bool                     `json:"published,omitempty"`
}

// List returns one page of schedules.
func (s *ScheduleService) List(ctx context.Context, params query.Params) (*store.PaginatedResult[domain.Schedule], error) {
	desc := query.Normalize(params, query.WithAllowedFields(scheduleFilterFields...))

	page, err := s.store.Schedules.FindPage(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return page, nil
}

// Get returns one schedule by ID.
func (s *ScheduleService) Get(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	schedule, err := s.store.Schedules.Get(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("schedule %s not found", scheduleID)
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return schedule, nil
}

// Create adds a schedule. The playlist is resolved (content existence,
// default intervals) up front, then assignment tags are linked through the
// reconciliation path so every tag back-reference lands atomically.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*domain.Schedule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	contents, err := s.resolveContents(ctx, req.Contents)
	if err != nil {
		return nil, err
	}

	scheduleID, err := id.Generate("sch")
	if err != nil {
		return nil, fmt.Errorf("generate schedule ID: %w", err)
	}

	now := time.Now()
	schedule := &domain.Schedule{
		ID:             scheduleID,
		DisplayName:    req.DisplayName,
		ScheduleGroup:  req.ScheduleGroup,
		AssignmentTags: []string{},
		Contents:       contents,
		Published:      req.Published,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Schedules.Create(ctx, scheduleID, schedule); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a schedule with that display name already exists")
		}
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	if len(req.AssignmentTags) > 0 {
		schedule, err = s.store.ApplyScheduleLinks(ctx, scheduleID, nil, linkset.Normalize(req.AssignmentTags))
		if err != nil {
			// Roll the half-created schedule back rather than leaving an
			// unpublishable record behind.
			_ = s.store.DeleteScheduleCascade(ctx, scheduleID)
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("a referenced tag does not exist").WithCause(err)
			}
			return nil, fmt.Errorf("apply schedule links: %w", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("Schedule created",
			"schedule_id", scheduleID,
			"schedule_group", req.ScheduleGroup,
			"tags", schedule.AssignmentTags,
		)
	}

	return schedule, nil
}

// Edit applies a partial update, reconciling assignment tags when present.
func (s *ScheduleService) Edit(ctx context.Context, scheduleID string, req EditScheduleRequest) (*domain.Schedule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	schedule, err := s.store.Schedules.Get(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("schedule %s not found", scheduleID)
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	changed := false
	if req.DisplayName != nil {
		schedule.DisplayName = *req.DisplayName
		changed = true
	}
	if req.ScheduleGroup != nil {
		schedule.ScheduleGroup = *req.ScheduleGroup
		changed = true
	}
	if req.Contents != nil {
		contents, err := s.resolveContents(ctx, *req.Contents)
		if err != nil {
			return nil, err
		}
		schedule.Contents = contents
		changed = true
	}
	if req.Published != nil {
		schedule.Published = *req.Published
		changed = true
	}

	if changed {
		schedule.Touch()
		if err := s.store.Schedules.Update(ctx, scheduleID, schedule); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return nil, domainerrors.Conflict("a schedule with that display name already exists")
			}
			return nil, fmt.Errorf("update schedule: %w", err)
		}
	}

	if req.AssignmentTags != nil {
		toUnlink, toLink := linkset.Diff(schedule.AssignmentTags, *req.AssignmentTags)
		schedule, err = s.store.ApplyScheduleLinks(ctx, scheduleID, toUnlink, toLink)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("a referenced tag does not exist").WithCause(err)
			}
			return nil, fmt.Errorf("apply schedule links: %w", err)
		}

		if s.logger != nil {
			s.logger.Info("Schedule links reconciled",
				"schedule_id", scheduleID,
				"unlinked", toUnlink,
				"linked", toLink,
			)
		}
	}

	return schedule, nil
}

// Delete removes a schedule and detaches it from its assignment tags.
func (s *ScheduleService) Delete(ctx context.Context, scheduleID string) error {
	if err := s.store.DeleteScheduleCascade(ctx, scheduleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("schedule %s not found", scheduleID)
		}
		return fmt.Errorf("delete schedule: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Schedule deleted", "schedule_id", scheduleID)
	}
	return nil
}

// resolveContents checks that each playlist entry references a real asset
// and applies the default interval to entries that didn't set one.
func (s *ScheduleService) resolveContents(ctx context.Context, reqs []ScheduleContentRequest) ([]domain.ScheduleContent, error) {
	contents := make([]domain.ScheduleContent, 0, len(reqs))
	for _, entry := range reqs {
		if _, err := s.store.Contents.Get(ctx, entry.ContentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFoundf("content %s not found", entry.ContentID)
			}
			return nil, fmt.Errorf("resolve content %s: %w", entry.ContentID, err)
		}

		interval := entry.Interval
		if interval == 0 {
			interval = domain.DefaultContentInterval
		}
		contents = append(contents, domain.ScheduleContent{
			ContentID: entry.ContentID,
			Interval:  interval,
		})
	}
	return contents, nil
}
