package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/signboardapp/signboard-server/internal/domain"
	domainerrors "github.com/signboardapp/signboard-server/internal/errors"
	"github.com/signboardapp/signboard-server/internal/id"
	"github.com/signboardapp/signboard-server/internal/linkset"
	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/validation"
)

var tagFilterFields = []string{"displayName"}

// TagService manages device tags, the grouping primitive between devices
// and schedules.
type TagService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(s *store.Store, v *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{store: s, validator: v, logger: logger}
}

// CreateTagRequest contains new tag data.
type CreateTagRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=120"`
}

// EditTagRequest is a partial tag update.
type EditTagRequest struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=120"`
}

// AvailableTagsRequest selects the schedule period to compute availability
// against.
type AvailableTagsRequest struct {
	ScheduleGroup string `json:"scheduleGroup" validate:"required,period"`
}

// TagResponse is a tag, optionally with its linked schedules expanded.
type TagResponse struct {
	ID              string            `json:"id"`
	DisplayName     string            `json:"displayName"`
	LinkedDevices   []string          `json:"linkedDevices"`
	LinkedSchedules []string          `json:"linkedSchedules"`
	Schedules       []*domain.Schedule `json:"schedules,omitempty"` // Populated form of LinkedSchedules.
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func newTagResponse(t *domain.Tag) *TagResponse {
	return &TagResponse{
		ID:              t.ID,
		DisplayName:     t.DisplayName,
		LinkedDevices:   orEmpty(t.LinkedDevices),
		LinkedSchedules: orEmpty(t.LinkedSchedules),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// List returns one page of tags. The linked schedules are always expanded,
// matching what the dashboard's tag table renders.
func (s *TagService) List(ctx context.Context, params query.Params) (*store.PaginatedResult[TagResponse], error) {
	desc := query.Normalize(params,
		query.WithAllowedFields(tagFilterFields...),
		query.WithPopulate("linkedSchedules"),
	)

	page, err := s.store.Tags.FindPage(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	docs := make([]*TagResponse, 0, len(page.Docs))
	for _, t := range page.Docs {
		docs = append(docs, newTagResponse(t))
	}

	if desc.Options.HasPopulate("linkedSchedules") {
		if err := s.populateSchedules(ctx, docs); err != nil {
			return nil, err
		}
	}

	return store.NewPaginatedResult(docs, page.TotalDocs, page.Page, page.Limit), nil
}

// Get returns one tag by ID with its schedules expanded.
func (s *TagService) Get(ctx context.Context, tagID string) (*TagResponse, error) {
	tag, err := s.store.Tags.Get(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("tag %s not found", tagID)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	resp := newTagResponse(tag)
	if err := s.populateSchedules(ctx, []*TagResponse{resp}); err != nil {
		return nil, err
	}
	return resp, nil
}

// Create adds a tag. Display names are unique (case-insensitively), so a
// duplicate is a conflict, not a second tag.
func (s *TagService) Create(ctx context.Context, req CreateTagRequest) (*TagResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	now := time.Now()
	tag := &domain.Tag{
		ID:              tagID,
		DisplayName:     req.DisplayName,
		LinkedDevices:   []string{},
		LinkedSchedules: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Tags.Create(ctx, tagID, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a tag with that display name already exists")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Tag created", "tag_id", tagID, "display_name", req.DisplayName)
	}

	return newTagResponse(tag), nil
}

// Edit renames a tag.
func (s *TagService) Edit(ctx context.Context, tagID string, req EditTagRequest) (*TagResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tag, err := s.store.Tags.Get(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("tag %s not found", tagID)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	if req.DisplayName != nil {
		tag.DisplayName = *req.DisplayName
	}
	tag.Touch()

	if err := s.store.Tags.Update(ctx, tagID, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a tag with that display name already exists")
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	return newTagResponse(tag), nil
}

// Delete removes a tag and detaches it from every device and schedule that
// references it.
func (s *TagService) Delete(ctx context.Context, tagID string) error {
	if err := s.store.DeleteTagCascade(ctx, tagID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("tag %s not found", tagID)
		}
		return fmt.Errorf("delete tag: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Tag deleted", "tag_id", tagID)
	}
	return nil
}

// Available returns the tags NOT referenced by any schedule in the given
// period: the set a new schedule for that period may still claim. One tag
// drives one schedule per period, so "available" is the set difference
// between all tags and the period's used tags.
func (s *TagService) Available(ctx context.Context, req AvailableTagsRequest) ([]*TagResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	used := make(map[string]bool)
	for schedule, err := range s.store.Schedules.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list schedules: %w", err)
		}
		if schedule.ScheduleGroup != req.ScheduleGroup {
			continue
		}
		for _, tagID := range schedule.AssignmentTags {
			used[linkset.Canonical(tagID)] = true
		}
	}

	var available []*TagResponse
	for tag, err := range s.store.Tags.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		if !used[tag.ID] {
			available = append(available, newTagResponse(tag))
		}
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].DisplayName < available[j].DisplayName
	})

	if available == nil {
		available = []*TagResponse{}
	}
	return available, nil
}

// populateSchedules expands LinkedSchedules into full schedule documents on
// each response. Missing schedules (stale back-references) are skipped.
func (s *TagService) populateSchedules(ctx context.Context, tags []*TagResponse) error {
	for _, tag := range tags {
		schedules := make([]*domain.Schedule, 0, len(tag.LinkedSchedules))
		for _, scheduleID := range tag.LinkedSchedules {
			schedule, err := s.store.Schedules.Get(ctx, scheduleID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("populate schedule %s: %w", scheduleID, err)
			}
			schedules = append(schedules, schedule)
		}
		tag.Schedules = schedules
	}
	return nil
}
