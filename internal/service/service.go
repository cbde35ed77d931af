// Package service contains the application's business logic. Handlers stay
// thin: they decode requests and delegate here, and everything below returns
// domain errors that the API layer maps onto HTTP statuses.
package service

import (
	"log/slog"

	"github.com/signboardapp/signboard-server/internal/auth"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/store/accesslog"
	"github.com/signboardapp/signboard-server/internal/validation"
)

// Services bundles all application services for handler wiring.
type Services struct {
	Auth     *AuthService
	Profile  *ProfileService
	Device   *DeviceService
	Tag      *TagService
	Content  *ContentService
	Schedule *ScheduleService
}

// New constructs the full service graph over a document store, the access
// log, and the token service.
func New(
	s *store.Store,
	accessLog *accesslog.Store,
	tokenService *auth.TokenService,
	logger *slog.Logger,
) *Services {
	v := validation.New()

	return &Services{
		Auth:     NewAuthService(s, tokenService, v, logger),
		Profile:  NewProfileService(s, v, logger),
		Device:   NewDeviceService(s, accessLog, v, logger),
		Tag:      NewTagService(s, v, logger),
		Content:  NewContentService(s, v, logger),
		Schedule: NewScheduleService(s, v, logger),
	}
}
