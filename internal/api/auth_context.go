package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/signboardapp/signboard-server/internal/auth"
	domainerrors "github.com/signboardapp/signboard-server/internal/errors"
)

// authenticateRequest validates the Authorization header and returns the
// verified token claims.
func (s *Server) authenticateRequest(_ context.Context, authHeader string) (*auth.AccessClaims, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	claims, err := s.services.Auth.VerifyAccessToken(parts[1])
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid or expired token")
	}

	return claims, nil
}

// authenticateAndRequireAdmin validates the token and requires the ADMIN role.
func (s *Server) authenticateAndRequireAdmin(ctx context.Context, authHeader string) (*auth.AccessClaims, error) {
	claims, err := s.authenticateRequest(ctx, authHeader)
	if err != nil {
		return nil, err
	}

	if !claims.IsAdmin() {
		return nil, domainerrors.Forbidden("Admin access required")
	}

	return claims, nil
}

// extractIP picks the client address from forwarding headers, preferring the
// first hop in X-Forwarded-For.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		if idx := strings.IndexByte(xForwardedFor, ','); idx >= 0 {
			return strings.TrimSpace(xForwardedFor[:idx])
		}
		return strings.TrimSpace(xForwardedFor)
	}
	return xRealIP
}
