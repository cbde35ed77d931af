package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns a filtered, paginated list of tags with populated schedules",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAvailableTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/available",
		Summary:     "Get available tags",
		Description: "Returns tags not referenced by any schedule in the given period",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetAvailableTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID with populated schedules",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Creates a new tag (admin only)",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Update tag",
		Description: "Renames a tag (admin only)",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag and detaches it from all devices and schedules (admin only)",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)
}

// === DTOs ===

// TagOutput wraps a tag for Huma.
type TagOutput struct {
	Body service.TagResponse
}

// ListTagsOutput wraps a tag page for Huma.
type ListTagsOutput struct {
	Body store.PaginatedResult[service.TagResponse]
}

// GetTagInput contains parameters for getting a tag.
type GetTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// AvailableTagsInput selects the schedule period to compute availability
// against.
type AvailableTagsInput struct {
	Authorization string `header:"Authorization"`
	ScheduleGroup string `query:"scheduleGroup" doc:"Schedule period (YYYY/MM)"`
}

// AvailableTagsResponse contains the unreferenced tags for a period.
type AvailableTagsResponse struct {
	Tags []*service.TagResponse `json:"tags" doc:"Tags free in the requested period"`
}

// AvailableTagsOutput wraps the available tags response for Huma.
type AvailableTagsOutput struct {
	Body AvailableTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	DisplayName string `json:"displayName" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateTagRequest
}

// UpdateTagRequest is the request body for updating a tag.
type UpdateTagRequest struct {
	DisplayName *string `json:"displayName,omitempty" doc:"Tag name"`
}

// UpdateTagInput wraps the update tag request for Huma.
type UpdateTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
	Body          UpdateTagRequest
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListInput) (*ListTagsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Tag.List(ctx, input.queryParams())
	if err != nil {
		return nil, err
	}

	return &ListTagsOutput{Body: *page}, nil
}

func (s *Server) handleGetAvailableTags(ctx context.Context, input *AvailableTagsInput) (*AvailableTagsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.Available(ctx, service.AvailableTagsRequest{
		ScheduleGroup: input.ScheduleGroup,
	})
	if err != nil {
		return nil, err
	}

	return &AvailableTagsOutput{Body: AvailableTagsResponse{Tags: tags}}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: *tag}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Create(ctx, service.CreateTagRequest{
		DisplayName: input.Body.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: *tag}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Edit(ctx, input.ID, service.EditTagRequest{
		DisplayName: input.Body.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: *tag}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *GetTagInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Tag.Delete(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}
