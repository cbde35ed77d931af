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
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/validation"
)

// AuthService handles registration, login and refresh-token rotation.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(s *store.Store, tokenService *auth.TokenService, v *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        s,
		tokenService: tokenService,
		validator:    v,
		logger:       logger,
	}
}

// RegisterRequest contains new account data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"displayName" validate:"required,max=120"`
}

// LoginRequest contains account credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the opaque refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResponse contains the issued tokens and the authenticated profile.
type AuthResponse struct {
	Profile      *ProfileResponse `json:"profile"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresIn    int64            `json:"expiresIn"` // Access token lifetime in seconds.
}

// Register creates a new profile with the USER role and signs it in.
// The very first profile also receives ADMIN so a fresh install has an
// operator able to manage the inventory.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profileID, err := id.Generate("prof")
	if err != nil {
		return nil, fmt.Errorf("generate profile ID: %w", err)
	}

	roles := []domain.Role{domain.RoleUser}
	existing, err := s.store.Profiles.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	if existing == 0 {
		roles = append(roles, domain.RoleAdmin)
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
		s.logger.Info("Profile registered", "profile_id", profileID, "email", profile.Email)
	}

	return s.issueTokens(ctx, profile)
}

// Login verifies credentials and issues a fresh token pair.
// Wrong email and wrong password return the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	profile, err := s.store.Profiles.GetByIndex(ctx, "email", req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	ok, err := auth.VerifyPassword(profile.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if s.logger != nil {
		s.logger.Info("Profile logged in", "profile_id", profile.ID)
	}

	return s.issueTokens(ctx, profile)
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. An expired or unknown token yields TOKEN_EXPIRED, never a
// silent re-issue.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash := auth.HashRefreshToken(req.RefreshToken)
	stored, err := s.store.RefreshTokens.GetByIndex(ctx, "hash", hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.TokenExpired("refresh token is invalid or revoked")
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	// Single use: consume before issuing, even if issuance fails.
	if err := s.store.RefreshTokens.Delete(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}

	if stored.Expired(time.Now()) {
		return nil, domainerrors.TokenExpired("refresh token has expired")
	}

	profile, err := s.store.Profiles.Get(ctx, stored.ProfileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.TokenExpired("profile no longer exists")
		}
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	return s.issueTokens(ctx, profile)
}

// VerifyAccessToken parses and validates an access token, returning its
// claims.
func (s *AuthService) VerifyAccessToken(token string) (*auth.AccessClaims, error) {
	return s.tokenService.VerifyAccessToken(token)
}

// issueTokens generates an access/refresh pair and persists the refresh side.
func (s *AuthService) issueTokens(ctx context.Context, profile *domain.Profile) (*AuthResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(profile)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	tokenID, err := id.Generate("rt")
	if err != nil {
		return nil, fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	record := &domain.RefreshToken{
		ID:        tokenID,
		ProfileID: profile.ID,
		TokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt: now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt: now,
	}
	if err := s.store.RefreshTokens.Create(ctx, tokenID, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResponse{
		Profile:      NewProfileResponse(profile),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}
