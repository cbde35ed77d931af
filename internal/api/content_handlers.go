package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/signboardapp/signboard-server/internal/domain"
	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
)

func (s *Server) registerContentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listContents",
		Method:      http.MethodGet,
		Path:        "/api/v1/contents",
		Summary:     "List content assets",
		Description: "Returns a filtered, paginated list of content assets",
		Tags:        []string{"Contents"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListContents)

	huma.Register(s.api, huma.Operation{
		OperationID: "getContent",
		Method:      http.MethodGet,
		Path:        "/api/v1/contents/{id}",
		Summary:     "Get content asset",
		Description: "Returns a content asset by ID",
		Tags:        []string{"Contents"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetContent)

	huma.Register(s.api, huma.Operation{
		OperationID: "createContent",
		Method:      http.MethodPost,
		Path:        "/api/v1/contents",
		Summary:     "Create content asset",
		Description: "Registers a content asset, deriving a timestamped blob name when a file name is given (admin only)",
		Tags:        []string{"Contents"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateContent)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateContent",
		Method:      http.MethodPatch,
		Path:        "/api/v1/contents/{id}",
		Summary:     "Update content asset",
		Description: "Applies a partial content update (admin only)",
		Tags:        []string{"Contents"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateContent)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteContent",
		Method:      http.MethodDelete,
		Path:        "/api/v1/contents/{id}",
		Summary:     "Delete content asset",
		Description: "Deletes a content asset's metadata (admin only)",
		Tags:        []string{"Contents"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteContent)
}

// === DTOs ===

// ContentOutput wraps a content asset for Huma.
type ContentOutput struct {
	Body domain.Content
}

// ListContentsOutput wraps a content page for Huma.
type ListContentsOutput struct {
	Body store.PaginatedResult[domain.Content]
}

// GetContentInput contains parameters for getting a content asset.
type GetContentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Content ID"`
}

// CreateContentRequest is the request body for creating a content asset.
type CreateContentRequest struct {
	DisplayName   string `json:"displayName" doc:"Asset name"`
	ScheduleGroup string `json:"scheduleGroup,omitempty" doc:"Month group (jan..dec)"`
	URI           string `json:"uri,omitempty" doc:"Blob storage base or full URI"`
	FileName      string `json:"fileName,omitempty" doc:"Uploaded file name (timestamped blob name is derived from it)"`
}

// CreateContentInput wraps the create content request for Huma.
type CreateContentInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateContentRequest
}

// UpdateContentRequest is the request body for updating a content asset.
type UpdateContentRequest struct {
	DisplayName   *string `json:"displayName,omitempty" doc:"Asset name"`
	ScheduleGroup *string `json:"scheduleGroup,omitempty" doc:"Month group (jan..dec)"`
	URI           *string `json:"uri,omitempty" doc:"Blob URI"`
}

// UpdateContentInput wraps the update content request for Huma.
type UpdateContentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Content ID"`
	Body          UpdateContentRequest
}

// === Handlers ===

func (s *Server) handleListContents(ctx context.Context, input *ListInput) (*ListContentsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Content.List(ctx, input.queryParams())
	if err != nil {
		return nil, err
	}

	return &ListContentsOutput{Body: *page}, nil
}

func (s *Server) handleGetContent(ctx context.Context, input *GetContentInput) (*ContentOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	content, err := s.services.Content.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ContentOutput{Body: *content}, nil
}

func (s *Server) handleCreateContent(ctx context.Context, input *CreateContentInput) (*ContentOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	content, err := s.services.Content.Create(ctx, service.CreateContentRequest{
		DisplayName:   input.Body.DisplayName,
		ScheduleGroup: input.Body.ScheduleGroup,
		URI:           input.Body.URI,
		FileName:      input.Body.FileName,
	})
	if err != nil {
		return nil, err
	}

	return &ContentOutput{Body: *content}, nil
}

func (s *Server) handleUpdateContent(ctx context.Context, input *UpdateContentInput) (*ContentOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	content, err := s.services.Content.Edit(ctx, input.ID, service.EditContentRequest{
		DisplayName:   input.Body.DisplayName,
		ScheduleGroup: input.Body.ScheduleGroup,
		URI:           input.Body.URI,
	})
	if err != nil {
		return nil, err
	}

	return &ContentOutput{Body: *content}, nil
}

func (s *Server) handleDeleteContent(ctx context.Context, input *GetContentInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Content.Delete(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Content deleted"}}, nil
}
