package api

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signboardapp/signboard-server/internal/auth"
	"github.com/signboardapp/signboard-server/internal/ratelimit"
	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/store/accesslog"
)

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a fully wired test server backed by temp databases.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()

	st, err := store.New(filepath.Join(tmpDir, "documents"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	accessLog, err := accesslog.Open(filepath.Join(tmpDir, "access-log.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = accessLog.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	services := service.New(st, accessLog, tokenService, logger)

	router := chi.NewRouter()
	humaConfig := huma.DefaultConfig("Signboard API Test", "1.0.0")
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	limiter := ratelimit.New(100, 100)
	t.Cleanup(limiter.Stop)

	s := &Server{
		store:        st,
		accessLog:    accessLog,
		services:     services,
		router:       router,
		api:          api,
		logger:       logger,
		loginLimiter: limiter,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerDeviceRoutes()
	s.registerDeviceAccessRoutes()
	s.registerTagRoutes()
	s.registerContentRoutes()
	s.registerScheduleRoutes()

	return &testServer{Server: s, api: humatest.Wrap(t, api)}
}

// newTestLimiter builds a rate limiter that is stopped with the test.
func newTestLimiter(t *testing.T, rps float64, burst int) *ratelimit.KeyedRateLimiter {
	t.Helper()
	limiter := ratelimit.New(rps, burst)
	t.Cleanup(limiter.Stop)
	return limiter
}

// registerTestAdmin registers the first profile, which bootstraps the
// install with ADMIN, and returns its bearer token.
func (ts *testServer) registerTestAdmin(t *testing.T) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":       "signage@test.com",
		"password":    "TestPassword123!",
		"displayName": "Signage Operator",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Register failed: %s", resp.Body.String())

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)

	return body.AccessToken
}

// registerViewer registers a plain USER profile after the install has been
// bootstrapped and returns its token alongside the profile.
func (ts *testServer) registerViewer(t *testing.T, email string) (string, *service.ProfileResponse) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":       email,
		"password":    "TestPassword123!",
		"displayName": "Viewer",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Register failed: %s", resp.Body.String())

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)

	return body.AccessToken, body.Profile
}

// createTestTag creates a tag and returns its ID.
func (ts *testServer) createTestTag(t *testing.T, token, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/tags",
		map[string]any{"displayName": name},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "Create tag failed: %s", resp.Body.String())

	var tag service.TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tag))
	return tag.ID
}

// reportTestAccess records a telemetry ping, auto-registering the device.
func (ts *testServer) reportTestAccess(t *testing.T, mac string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/device-accesses", map[string]any{
		"macAddress":  mac,
		"ip":          "10.0.0.30",
		"cpuUsage":    20.0,
		"memoryUsage": 35.5,
	})
	require.Equal(t, http.StatusOK, resp.Code, "Access report failed: %s", resp.Body.String())
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Components["documents"].Status)
	assert.Equal(t, "healthy", body.Components["accessLog"].Status)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := setupTestServer(t)

	paths := []string{
		"/api/v1/devices",
		"/api/v1/tags",
		"/api/v1/contents",
		"/api/v1/schedules",
		"/api/v1/profiles/me",
	}
	for _, path := range paths {
		resp := ts.api.Get(path)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "expected 401 for %s", path)
	}

	// Garbage tokens are rejected too.
	resp := ts.api.Get("/api/v1/tags", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
