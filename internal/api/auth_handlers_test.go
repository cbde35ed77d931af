package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerTestAdmin(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":       "Signage@test.com",
		"password":    "AnotherPassword1!",
		"displayName": "Second Operator",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerTestAdmin(t)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "signage@test.com",
		"password": "WrongPassword1!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogin_ValidationErrorForBadPayload(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "not-an-email",
		"password": "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRefresh_RotatesAndConsumesToken(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerTestAdmin(t)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "signage@test.com",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var login AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refreshToken": login.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var refreshed AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshed))
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)

	// The consumed token is dead.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refreshToken": login.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerTestAdmin(t)

	// Swap in a tight limiter so the test doesn't need 100 requests.
	ts.loginLimiter.Stop()
	ts.loginLimiter = newTestLimiter(t, 1.0/60, 2)

	headers := "X-Real-IP: 203.0.113.9"
	payload := map[string]any{
		"email":    "signage@test.com",
		"password": "TestPassword123!",
	}

	resp := ts.api.Post("/api/v1/auth/login", payload, headers)
	assert.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/auth/login", payload, headers)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", payload, headers)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	// A different client IP still gets through.
	resp = ts.api.Post("/api/v1/auth/login", payload, "X-Real-IP: 203.0.113.10")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCurrentProfile(t *testing.T) {
	ts := setupTestServer(t)

	token := ts.registerTestAdmin(t)

	resp := ts.api.Get("/api/v1/profiles/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "signage@test.com", body["email"])
	assert.NotContains(t, body, "passwordHash")
}

func TestAdminRoutes_ForbiddenForUserRole(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerTestAdmin(t)
	token, _ := ts.registerViewer(t, "viewer@test.com")

	resp := ts.api.Get("/api/v1/profiles", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/profiles",
		map[string]any{
			"email":       "new@test.com",
			"password":    "Password123!",
			"displayName": "New",
		},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestInventoryWrites_ForbiddenForUserRole(t *testing.T) {
	ts := setupTestServer(t)

	adminToken := ts.registerTestAdmin(t)
	token, _ := ts.registerViewer(t, "viewer@test.com")

	tagID := ts.createTestTag(t, adminToken, "Lobby")

	resp := ts.api.Post("/api/v1/tags",
		map[string]any{"displayName": "Rogue"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Patch("/api/v1/tags/"+tagID,
		map[string]any{"displayName": "Renamed"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/"+tagID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/contents",
		map[string]any{
			"displayName":   "Promo",
			"scheduleGroup": "2026/03",
			"uri":           "https://cdn.example.com/promo.mp4",
			"fileName":      "promo.mp4",
		},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/schedules",
		map[string]any{
			"displayName":    "March Loop",
			"scheduleGroup":  "2026/03",
			"assignmentTags": []string{},
			"contents":       []map[string]any{},
		},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Reads stay open to any authenticated profile.
	resp = ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)
}
