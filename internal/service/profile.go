package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/signboardapp/signboard-server/internal/auth"
	"github.com/signboardapp/signboard-server/internal/domain"
	domainerrors "github.com/signboardapp/signboard-server/internal/errors"
	"github.com/signboardapp/signboard-server/internal/id"
	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/validation"
)

// profileFilterFields are the fields clients may filter profiles on.
var profileFilterFields = []string{"email", "displayName"}

// ProfileService manages user accounts. All operations here are admin
// surface; self-service flows live on AuthService.
type ProfileService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(s *store.Store, v *validation.Validator, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: s, validator: v, logger: logger}
}

// ProfileResponse is the client-facing shape of a profile.
// The password hash never leaves the service layer.
type ProfileResponse struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"displayName"`
	Roles       []domain.Role `json:"roles"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewProfileResponse strips a profile down to its client-facing fields.
func NewProfileResponse(p *domain.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Roles:       p.Roles,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CreateProfileRequest contains admin-created account data.
type CreateProfileRequest struct {
	Email       string        `json:"email" validate:"required,email"`
	Password    string        `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string        `json:"displayName" validate:"required,max=120"`
	Roles       []domain.Role `json:"roles"`
}

// EditProfileRequest contains a partial profile update. Nil fields are left
// unchanged.
type EditProfileRequest struct {
	DisplayName *string        `json:"displayName,omitempty" validate:"omitempty,max=120"`
	Password    *string        `json:"password,omitempty" validate:"omitempty,min=8,max=1024"`
	Roles       *[]domain.Role `json:"roles,omitempty"`
}

// List returns one page of profiles matching the raw query parameters.
func (s *ProfileService) List(ctx context.Context, params query.Params) (*store.PaginatedResult[ProfileResponse], error) {
	desc := query.Normalize(params, query.WithAllowedFields(profileFilterFields...))

	page, err := s.store.Profiles.FindPage(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	docs := make([]*ProfileResponse, 0, len(page.Docs))
	for _, p := range page.Docs {
		docs = append(docs, NewProfileResponse(p))
	}
	return store.NewPaginatedResult(docs, page.TotalDocs, page.Page, page.Limit), nil
}

// Get returns one profile by ID.
func (s *ProfileService) Get(ctx context.Context, profileID string) (*ProfileResponse, error) {
	profile, err := s.store.Profiles.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("profile %s not found", profileID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return NewProfileResponse(profile), nil
}

// Create adds a profile with explicit roles. Defaults to USER when no roles
// are given.
func (s *ProfileService) Create(ctx context.Context, req CreateProfileRequest) (*ProfileResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}
	for _, r := range roles {
		if !domain.ValidRole(r) {
			return nil, domainerrors.Validationf("unknown role %q", r)
		}
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profileID, err := id.Generate("prof")
	if err != nil {
		return nil, fmt.Errorf("generate profile ID: %w", err)
	}

	now := time.Now()
	profile := &domain.Profile{
		ID:           profileID,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		Roles:        roles,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Profiles.Create(ctx, profileID, profile); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Profile created", "profile_id", profileID, "roles", roles)
	}

	return NewProfileResponse(profile), nil
}

// Edit applies a partial update to a profile.
func (s *ProfileService) Edit(ctx context.Context, profileID string, req EditProfileRequest) (*ProfileResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	profile, err := s.store.Profiles.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("profile %s not found", profileID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if req.DisplayName != nil {
		profile.DisplayName = *req.DisplayName
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		profile.PasswordHash = hash
	}
	if req.Roles != nil {
		for _, r := range *req.Roles {
			if !domain.ValidRole(r) {
				return nil, domainerrors.Validationf("unknown role %q", r)
			}
		}
		profile.Roles = *req.Roles
	}
	profile.Touch()

	if err := s.store.Profiles.Update(ctx, profileID, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return NewProfileResponse(profile), nil
}

// Delete removes a profile. Idempotent.
func (s *ProfileService) Delete(ctx context.Context, profileID string) error {
	if err := s.store.Profiles.Delete(ctx, profileID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Profile deleted", "profile_id", profileID)
	}
	return nil
}
