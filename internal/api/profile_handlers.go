package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/signboardapp/signboard-server/internal/domain"
	domainerrors "github.com/signboardapp/signboard-server/internal/errors"
	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profiles/me",
		Summary:     "Get current profile",
		Description: "Returns the profile of the authenticated caller",
		Tags:        []string{"Profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "listProfiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/profiles",
		Summary:     "List profiles",
		Description: "Returns a filtered, paginated list of profiles (admin only)",
		Tags:        []string{"Profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListProfiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profiles/{id}",
		Summary:     "Get profile",
		Description: "Returns a profile by ID (own profile or admin)",
		Tags:        []string{"Profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "createProfile",
		Method:      http.MethodPost,
		Path:        "/api/v1/profiles",
		Summary:     "Create profile",
		Description: "Creates a profile with explicit roles (admin only)",
		Tags:        []string{"Profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profiles/{id}",
		Summary:     "Update profile",
		Description: "Applies a partial profile update (own profile or admin)",
		Tags:        []string{"Profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfileRoles",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profiles/{id}/roles",
		Summary:     "Update profile roles",
		Description: "Replaces a profile's role set (admin only)",
		Tags:        []string{"Profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfileRoles)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteProfile",
		Method:      http.MethodDelete,
		Path:        "/api/v1/profiles/{id}",
		Summary:     "Delete profile",
		Description: "Deletes a profile (admin only)",
		Tags:        []string{"Profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteProfile)
}

// === DTOs ===

// ProfileOutput wraps a single profile for Huma.
type ProfileOutput struct {
	Body service.ProfileResponse
}

// ListProfilesOutput wraps a profile page for Huma.
type ListProfilesOutput struct {
	Body store.PaginatedResult[service.ProfileResponse]
}

// GetProfileInput contains parameters for getting a profile.
type GetProfileInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Profile ID"`
}

// CreateProfileRequest is the request body for creating a profile.
type CreateProfileRequest struct {
	Email       string        `json:"email" doc:"Account email"`
	Password    string        `json:"password" doc:"Account password"`
	DisplayName string        `json:"displayName" doc:"Profile name"`
	Roles       []domain.Role `json:"roles,omitempty" doc:"Roles (defaults to USER)"`
}

// CreateProfileInput wraps the create profile request for Huma.
type CreateProfileInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateProfileRequest
}

// UpdateProfileRequest is the request body for updating a profile.
// Role changes go through the dedicated roles endpoint.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty" doc:"Profile name"`
	Password    *string `json:"password,omitempty" doc:"New password"`
}

// UpdateProfileInput wraps the update profile request for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Profile ID"`
	Body          UpdateProfileRequest
}

// UpdateProfileRolesRequest is the request body for replacing a profile's roles.
type UpdateProfileRolesRequest struct {
	Roles []domain.Role `json:"roles" doc:"Replacement role set"`
}

// UpdateProfileRolesInput wraps the roles update request for Huma.
type UpdateProfileRolesInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Profile ID"`
	Body          UpdateProfileRolesRequest
}

// === Handlers ===

func (s *Server) handleGetCurrentProfile(ctx context.Context, input *struct {
	Authorization string `header:"Authorization"`
}) (*ProfileOutput, error) {
	claims, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Get(ctx, claims.ProfileID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleListProfiles(ctx context.Context, input *ListInput) (*ListProfilesOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Profile.List(ctx, input.queryParams())
	if err != nil {
		return nil, err
	}

	return &ListProfilesOutput{Body: *page}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, input *GetProfileInput) (*ProfileOutput, error) {
	if err := s.authorizeProfileAccess(ctx, input.Authorization, input.ID); err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleCreateProfile(ctx context.Context, input *CreateProfileInput) (*ProfileOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Create(ctx, service.CreateProfileRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
		Roles:       input.Body.Roles,
	})
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	if err := s.authorizeProfileAccess(ctx, input.Authorization, input.ID); err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Edit(ctx, input.ID, service.EditProfileRequest{
		DisplayName: input.Body.DisplayName,
		Password:    input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleUpdateProfileRoles(ctx context.Context, input *UpdateProfileRolesInput) (*ProfileOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Edit(ctx, input.ID, service.EditProfileRequest{
		Roles: &input.Body.Roles,
	})
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: *profile}, nil
}

// authorizeProfileAccess allows callers to act on their own profile;
// anything else requires the ADMIN role.
func (s *Server) authorizeProfileAccess(ctx context.Context, authHeader, profileID string) error {
	claims, err := s.authenticateRequest(ctx, authHeader)
	if err != nil {
		return err
	}
	if claims.ProfileID != profileID && !claims.IsAdmin() {
		return domainerrors.Forbidden("Admin access required")
	}
	return nil
}

func (s *Server) handleDeleteProfile(ctx context.Context, input *GetProfileInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Profile.Delete(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Profile deleted"}}, nil
}
