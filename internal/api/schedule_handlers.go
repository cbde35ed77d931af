package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/signboardapp/signboard-server/internal/domain"
	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
)

func (s *Server) registerScheduleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSchedules",
		Method:      http.MethodGet,
		Path:        "/api/v1/schedules",
		Summary:     "List schedules",
		Description: "Returns a filtered, paginated list of schedules",
		Tags:        []string{"Schedules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSchedules)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSchedule",
		Method:      http.MethodGet,
		Path:        "/api/v1/schedules/{id}",
		Summary:     "Get schedule",
		Description: "Returns a schedule by ID",
		Tags:        []string{"Schedules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSchedule)

	huma.Register(s.api, huma.Operation{
		OperationID: "createSchedule",
		Method:      http.MethodPost,
		Path:        "/api/v1/schedules",
		Summary:     "Create schedule",
		Description: "Creates a schedule and links its assignment tags (admin only)",
		Tags:        []string{"Schedules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateSchedule)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSchedule",
		Method:      http.MethodPatch,
		Path:        "/api/v1/schedules/{id}",
		Summary:     "Update schedule",
		Description: "Applies a partial update and reconciles assignment tags (admin only)",
		Tags:        []string{"Schedules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSchedule)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSchedule",
		Method:      http.MethodDelete,
		Path:        "/api/v1/schedules/{id}",
		Summary:     "Delete schedule",
		Description: "Deletes a schedule and detaches it from all tags (admin only)",
		Tags:        []string{"Schedules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteSchedule)
}

// === DTOs ===

// ScheduleOutput wraps a schedule for Huma.
type ScheduleOutput struct {
	Body domain.Schedule
}

// ListSchedulesOutput wraps a schedule page for Huma.
type ListSchedulesOutput struct {
	Body store.PaginatedResult[domain.Schedule]
}

// GetScheduleInput contains parameters for getting a schedule.
type GetScheduleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Schedule ID"`
}

// ScheduleContentEntry is one playlist slot in a schedule request.
type ScheduleContentEntry struct {
	ContentID string `json:"content" doc:"Content asset ID"`
	Interval  int    `json:"interval,omitempty" doc:"Display seconds (defaults to 5)"`
}

// CreateScheduleRequest is the request body for creating a schedule.
type CreateScheduleRequest struct {
	DisplayName    string                 `json:"displayName" doc:"Schedule name"`
	ScheduleGroup  string                 `json:"scheduleGroup" doc:"Schedule period (YYYY/MM)"`
	AssignmentTags []string               `json:"assignmentTags,omitempty" doc:"Tag IDs to link"`
	Contents       []ScheduleContentEntry `json:"contents,omitempty" doc:"Ordered playlist"`
	Published      bool                   `json:"published,omitempty" doc:"Whether the schedule is live"`
}

// CreateScheduleInput wraps the create schedule request for Huma.
type CreateScheduleInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateScheduleRequest
}

// UpdateScheduleRequest is the request body for updating a schedule. A
// non-nil assignmentTags is the complete requested tag set.
type UpdateScheduleRequest struct {
	DisplayName    *string                 `json:"displayName,omitempty" doc:"Schedule name"`
	ScheduleGroup  *string                 `json:"scheduleGroup,omitempty" doc:"Schedule period (YYYY/MM)"`
	AssignmentTags *[]string               `json:"assignmentTags,omitempty" doc:"Requested tag ID set"`
	Contents       *[]ScheduleContentEntry `json:"contents,omitempty" doc:"Replacement playlist"`
	Published      *bool                   `json:"published,omitempty" doc:"Whether the schedule is live"`
}

// UpdateScheduleInput wraps the update schedule request for Huma.
type UpdateScheduleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Schedule ID"`
	Body          UpdateScheduleRequest
}

// === Handlers ===

func (s *Server) handleListSchedules(ctx context.Context, input *ListInput) (*ListSchedulesOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Schedule.List(ctx, input.queryParams())
	if err != nil {
		return nil, err
	}

	return &ListSchedulesOutput{Body: *page}, nil
}

func (s *Server) handleGetSchedule(ctx context.Context, input *GetScheduleInput) (*ScheduleOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	schedule, err := s.services.Schedule.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ScheduleOutput{Body: *schedule}, nil
}

func (s *Server) handleCreateSchedule(ctx context.Context, input *CreateScheduleInput) (*ScheduleOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	schedule, err := s.services.Schedule.Create(ctx, service.CreateScheduleRequest{
		DisplayName:    input.Body.DisplayName,
		ScheduleGroup:  input.Body.ScheduleGroup,
		AssignmentTags: input.Body.AssignmentTags,
		Contents:       mapScheduleContents(input.Body.Contents),
		Published:      input.Body.Published,
	})
	if err != nil {
		return nil, err
	}

	return &ScheduleOutput{Body: *schedule}, nil
}

func (s *Server) handleUpdateSchedule(ctx context.Context, input *UpdateScheduleInput) (*ScheduleOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	req := service.EditScheduleRequest{
		DisplayName:    input.Body.DisplayName,
		ScheduleGroup:  input.Body.ScheduleGroup,
		AssignmentTags: input.Body.AssignmentTags,
		Published:      input.Body.Published,
	}
	if input.Body.Contents != nil {
		contents := mapScheduleContents(*input.Body.Contents)
		req.Contents = &contents
	}

	schedule, err := s.services.Schedule.Edit(ctx, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &ScheduleOutput{Body: *schedule}, nil
}

func (s *Server) handleDeleteSchedule(ctx context.Context, input *GetScheduleInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Schedule.Delete(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Schedule deleted"}}, nil
}

func mapScheduleContents(entries []ScheduleContentEntry) []service.ScheduleContentRequest {
	if entries == nil {
		return nil
	}
	out := make([]service.ScheduleContentRequest, len(entries))
	for i, e := range entries {
		out[i] = service.ScheduleContentRequest{ContentID: e.ContentID, Interval: e.Interval}
	}
	return out
}
