package service_test

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signboardapp/signboard-server/internal/auth"
	"github.com/signboardapp/signboard-server/internal/domain"
	domainerrors "github.com/signboardapp/signboard-server/internal/errors"
	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/store/accesslog"
)

type testEnv struct {
	store    *store.Store
	services *service.Services
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()

	s, err := store.New(filepath.Join(dir, "documents"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	accessLog, err := accesslog.Open(filepath.Join(dir, "access-log.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = accessLog.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:    s,
		services: service.New(s, accessLog, tokens, nil),
	}
}

func createTag(t *testing.T, env *testEnv, name string) string {
	t.Helper()
	tag, err := env.services.Tag.Create(context.Background(), service.CreateTagRequest{DisplayName: name})
	require.NoError(t, err)
	return tag.ID
}

func reportAccess(t *testing.T, env *testEnv, mac string) *domain.Device {
	t.Helper()
	_, err := env.services.Device.RecordAccess(context.Background(), service.AccessReport{
		MACAddress:  mac,
		IP:          "10.0.0.20",
		CPUUsage:    12.5,
		MemoryUsage: 40.0,
	})
	require.NoError(t, err)

	device, err := env.services.Device.GetByMAC(context.Background(), mac)
	require.NoError(t, err)
	return device
}

func TestAuth_RegisterLoginRefresh(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	reg, err := env.services.Auth.Register(ctx, service.RegisterRequest{
		Email:       "ops@example.com",
		Password:    "correct horse",
		DisplayName: "Operations",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)
	// The first profile bootstraps the install and gets ADMIN on top of USER.
	assert.Equal(t, []domain.Role{domain.RoleUser, domain.RoleAdmin}, reg.Profile.Roles)

	// Duplicate email conflicts, case-insensitively.
	_, err = env.services.Auth.Register(ctx, service.RegisterRequest{
		Email:       "OPS@example.com",
		Password:    "correct horse",
		DisplayName: "Imposter",
	})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	// Later registrations are plain USER accounts.
	second, err := env.services.Auth.Register(ctx, service.RegisterRequest{
		Email:       "viewer@example.com",
		Password:    "correct horse",
		DisplayName: "Viewer",
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleUser}, second.Profile.Roles)

	login, err := env.services.Auth.Login(ctx, service.LoginRequest{
		Email:    "ops@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	// Wrong password and unknown email fail identically.
	_, errPw := env.services.Auth.Login(ctx, service.LoginRequest{
		Email: "ops@example.com", Password: "wrong",
	})
	_, errEmail := env.services.Auth.Login(ctx, service.LoginRequest{
		Email: "ghost@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, errPw, domainerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, errEmail, domainerrors.ErrInvalidCredentials)

	// Refresh rotates: the new pair works, the old token is consumed.
	refreshed, err := env.services.Auth.Refresh(ctx, service.RefreshRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = env.services.Auth.Refresh(ctx, service.RefreshRequest{
		RefreshToken: login.RefreshToken,
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestDevice_AccessReportRegistersAndTouches(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	// First report signs the panel up.
	device := reportAccess(t, env, "AA:BB:CC:DD:EE:01")
	assert.Empty(t, device.LinkedTags)
	firstSeen := device.LastConnectionAt

	// Second report only bumps the timestamp.
	time.Sleep(5 * time.Millisecond)
	again := reportAccess(t, env, "AA:BB:CC:DD:EE:01")
	assert.Equal(t, device.ID, again.ID)
	assert.True(t, again.LastConnectionAt.After(firstSeen))

	// Both reports landed in the access log.
	page, err := env.services.Device.ListAccesses(ctx, query.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalDocs)

	// Malformed MACs are rejected before any write.
	_, err = env.services.Device.RecordAccess(ctx, service.AccessReport{
		MACAddress: "not-a-mac", IP: "10.0.0.1",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestDevice_EditReconcilesLinks(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	tag1 := createTag(t, env, "lobby")
	tag2 := createTag(t, env, "cafeteria")
	tag3 := createTag(t, env, "warehouse")
	device := reportAccess(t, env, "AA:BB:CC:DD:EE:01")

	// Link {tag1, tag2}.
	initial := []string{tag1, tag2}
	updated, err := env.services.Device.Edit(ctx, device.ID, service.EditDeviceRequest{
		LinkedTags: &initial,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{tag1, tag2}, updated.LinkedTags)

	// Reconcile to {tag2, tag3}: tag1 drops, tag2 survives, tag3 joins,
	// with every back-reference following.
	requested := []string{tag2, tag3}
	updated, err = env.services.Device.Edit(ctx, device.ID, service.EditDeviceRequest{
		LinkedTags: &requested,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{tag2, tag3}, updated.LinkedTags)

	tag1Resp, err := env.services.Tag.Get(ctx, tag1)
	require.NoError(t, err)
	assert.Empty(t, tag1Resp.LinkedDevices)

	tag3Resp, err := env.services.Tag.Get(ctx, tag3)
	require.NoError(t, err)
	assert.Equal(t, []string{device.ID}, tag3Resp.LinkedDevices)

	// A request naming a missing tag changes nothing.
	bogus := []string{tag2, "tag_ghost"}
	_, err = env.services.Device.Edit(ctx, device.ID, service.EditDeviceRequest{
		LinkedTags: &bogus,
	})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	device, err = env.services.Device.Get(ctx, device.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{tag2, tag3}, device.LinkedTags)
}

func TestTag_CreateConflictAndDelete(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	createTag(t, env, "lobby")

	// Duplicate display name (any case) conflicts.
	_, err := env.services.Tag.Create(ctx, service.CreateTagRequest{DisplayName: "Lobby"})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	page, err := env.services.Tag.List(ctx, query.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalDocs)
}

func TestTag_Available(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	tag1 := createTag(t, env, "lobby")
	tag2 := createTag(t, env, "cafeteria")
	tag3 := createTag(t, env, "warehouse")

	// March claims tag1; April claims tag2.
	_, err := env.services.Schedule.Create(ctx, service.CreateScheduleRequest{
		DisplayName:    "march lineup",
		ScheduleGroup:  "2026/03",
		AssignmentTags: []string{tag1},
	})
	require.NoError(t, err)
	_, err = env.services.Schedule.Create(ctx, service.CreateScheduleRequest{
		DisplayName:    "april lineup",
		ScheduleGroup:  "2026/04",
		AssignmentTags: []string{tag2},
	})
	require.NoError(t, err)

	// For March, tag2 and tag3 are still free.
	available, err := env.services.Tag.Available(ctx, service.AvailableTagsRequest{
		ScheduleGroup: "2026/03",
	})
	require.NoError(t, err)

	ids := make([]string, 0, len(available))
	for _, tag := range available {
		ids = append(ids, tag.ID)
	}
	assert.ElementsMatch(t, []string{tag2, tag3}, ids)

	// A period with no schedules leaves everything available.
	available, err = env.services.Tag.Available(ctx, service.AvailableTagsRequest{
		ScheduleGroup: "2026/05",
	})
	require.NoError(t, err)
	assert.Len(t, available, 3)

	// Malformed periods are rejected.
	_, err = env.services.Tag.Available(ctx, service.AvailableTagsRequest{
		ScheduleGroup: "03/2026",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSchedule_Lifecycle(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	tag1 := createTag(t, env, "lobby")
	tag2 := createTag(t, env, "cafeteria")

	content, err := env.services.Content.Create(ctx, service.CreateContentRequest{
		DisplayName:   "spring promo",
		ScheduleGroup: "mar",
		URI:           "https://blobs.example.com/spring.mp4",
	})
	require.NoError(t, err)

	schedule, err := env.services.Schedule.Create(ctx, service.CreateScheduleRequest{
		DisplayName:    "march lineup",
		ScheduleGroup:  "2026/03",
		AssignmentTags: []string{tag1},
		Contents: []service.ScheduleContentRequest{
			{ContentID: content.ID}, // No interval: default applies.
			{ContentID: content.ID, Interval: 30},
		},
	})
	require.NoError(t, err)
	require.Len(t, schedule.Contents, 2)
	assert.Equal(t, domain.DefaultContentInterval, schedule.Contents[0].Interval)
	assert.Equal(t, 30, schedule.Contents[1].Interval)

	// Unknown playlist content is rejected.
	_, err = env.services.Schedule.Create(ctx, service.CreateScheduleRequest{
		DisplayName:   "broken lineup",
		ScheduleGroup: "2026/03",
		Contents:      []service.ScheduleContentRequest{{ContentID: "cnt_ghost"}},
	})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// Reconcile tags to {tag2}.
	requested := []string{tag2}
	schedule, err = env.services.Schedule.Edit(ctx, schedule.ID, service.EditScheduleRequest{
		AssignmentTags: &requested,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{tag2}, schedule.AssignmentTags)

	tag2Resp, err := env.services.Tag.Get(ctx, tag2)
	require.NoError(t, err)
	assert.Equal(t, []string{schedule.ID}, tag2Resp.LinkedSchedules)

	// Delete detaches the back-reference.
	require.NoError(t, env.services.Schedule.Delete(ctx, schedule.ID))

	tag2Resp, err = env.services.Tag.Get(ctx, tag2)
	require.NoError(t, err)
	assert.Empty(t, tag2Resp.LinkedSchedules)
}

func TestSchedule_InvalidPeriod(t *testing.T) {
	env := setupServices(t)

	_, err := env.services.Schedule.Create(context.Background(), service.CreateScheduleRequest{
		DisplayName:   "bad period",
		ScheduleGroup: "2026-03",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestProfile_AdminCRUD(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	created, err := env.services.Profile.Create(ctx, service.CreateProfileRequest{
		Email:       "admin@example.com",
		Password:    "super secret",
		DisplayName: "Admin",
		Roles:       []domain.Role{domain.RoleUser, domain.RoleAdmin},
	})
	require.NoError(t, err)
	assert.True(t, created.Roles[1] == domain.RoleAdmin)

	// Role updates validate role names.
	badRoles := []domain.Role{"SUPERUSER"}
	_, err = env.services.Profile.Edit(ctx, created.ID, service.EditProfileRequest{
		Roles: &badRoles,
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	newName := "Head Admin"
	edited, err := env.services.Profile.Edit(ctx, created.ID, service.EditProfileRequest{
		DisplayName: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "Head Admin", edited.DisplayName)

	page, err := env.services.Profile.List(ctx, query.Params{
		Filter: "admin",
		Fields: "email",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalDocs)

	require.NoError(t, env.services.Profile.Delete(ctx, created.ID))
	_, err = env.services.Profile.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestContent_ConflictAndBlobName(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	created, err := env.services.Content.Create(ctx, service.CreateContentRequest{
		DisplayName:   "spring promo",
		ScheduleGroup: "mar",
		URI:           "https://blobs.example.com/assets",
		FileName:      "spring promo.mp4",
	})
	require.NoError(t, err)
	assert.Contains(t, created.URI, "https://blobs.example.com/assets/mar/")
	assert.Contains(t, created.URI, "_spring_promo.mp4")

	_, err = env.services.Content.Create(ctx, service.CreateContentRequest{
		DisplayName: "Spring Promo",
	})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}
