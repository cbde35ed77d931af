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
	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/util"
	"github.com/signboardapp/signboard-server/internal/validation"
)

var contentFilterFields = []string{"displayName", "scheduleGroup"}

// ContentService manages content asset metadata. The bytes themselves live
// in external blob storage; we track the URI and grouping.
type ContentService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewContentService creates a new content service.
func NewContentService(s *store.Store, v *validation.Validator, logger *slog.Logger) *ContentService {
	return &ContentService{store: s, validator: v, logger: logger}
}

// CreateContentRequest contains new asset metadata. FileName, when present,
// is the uploaded file's original name; the stored URI gets the
// timestamped blob name appended under the scheduleGroup folder.
type CreateContentRequest struct {
	DisplayName   string `json:"displayName" validate:"required,max=120"`
	ScheduleGroup string `json:"scheduleGroup" validate:"omitempty,monthgroup"`
	URI           string `json:"uri" validate:"omitempty,url"`
	FileName      string `json:"fileName" validate:"omitempty,max=255"`
}

// EditContentRequest is a partial content update.
type EditContentRequest struct {
	DisplayName   *string `json:"displayName,omitempty" validate:"omitempty,max=120"`
	ScheduleGroup *string `json:"scheduleGroup,omitempty" validate:"omitempty,monthgroup"`
	URI           *string `json:"uri,omitempty" validate:"omitempty,url"`
}

// List returns one page of content assets.
func (s *ContentService) List(ctx context.Context, params query.Params) (*store.PaginatedResult[domain.Content], error) {
	desc := query.Normalize(params, query.WithAllowedFields(contentFilterFields...))

	page, err := s.store.Contents.FindPage(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	return page, nil
}

// Get returns one content asset by ID.
func (s *ContentService) Get(ctx context.Context, contentID string) (*domain.Content, error) {
	content, err := s.store.Contents.Get(ctx, contentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("content %s not found", contentID)
		}
		return nil, fmt.Errorf("get content: %w", err)
	}
	return content, nil
}

// Create registers an asset. Display names are unique.
func (s *ContentService) Create(ctx context.Context, req CreateContentRequest) (*domain.Content, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	contentID, err := id.Generate("cnt")
	if err != nil {
		return nil, fmt.Errorf("generate content ID: %w", err)
	}

	now := time.Now()
	uri := req.URI
	if req.FileName != "" {
		uri = blobURI(req.URI, req.ScheduleGroup, util.ContentBlobName(req.FileName, now))
	}

	content := &domain.Content{
		ID:            contentID,
		DisplayName:   req.DisplayName,
		ScheduleGroup: req.ScheduleGroup,
		URI:           uri,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Contents.Create(ctx, contentID, content); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a content asset with that display name already exists")
		}
		return nil, fmt.Errorf("create content: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Content created", "content_id", contentID, "display_name", req.DisplayName)
	}

	return content, nil
}

// Edit applies a partial update to an asset.
func (s *ContentService) Edit(ctx context.Context, contentID string, req EditContentRequest) (*domain.Content, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	content, err := s.store.Contents.Get(ctx, contentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("content %s not found", contentID)
		}
		return nil, fmt.Errorf("get content: %w", err)
	}

	if req.DisplayName != nil {
		content.DisplayName = *req.DisplayName
	}
	if req.ScheduleGroup != nil {
		content.ScheduleGroup = *req.ScheduleGroup
	}
	if req.URI != nil {
		content.URI = *req.URI
	}
	content.Touch()

	if err := s.store.Contents.Update(ctx, contentID, content); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a content asset with that display name already exists")
		}
		return nil, fmt.Errorf("update content: %w", err)
	}

	return content, nil
}

// Delete removes an asset's metadata. The blob itself is untouched.
func (s *ContentService) Delete(ctx context.Context, contentID string) error {
	if err := s.store.Contents.Delete(ctx, contentID); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Content deleted", "content_id", contentID)
	}
	return nil
}

// blobURI joins the storage base, the group folder and the blob name.
func blobURI(base, group, name string) string {
	switch {
	case base == "":
		if group == "" {
			return name
		}
		return group + "/" + name
	case group == "":
		return base + "/" + name
	default:
		return base + "/" + group + "/" + name
	}
}
