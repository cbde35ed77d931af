package providers

import (
	"github.com/samber/do/v2"

	"github.com/signboardapp/signboard-server/internal/auth"
	"github.com/signboardapp/signboard-server/internal/logger"
	"github.com/signboardapp/signboard-server/internal/service"
)

// ProvideServices provides the fully wired business service bundle.
func ProvideServices(i do.Injector) (*service.Services, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	accessLogHandle := do.MustInvoke[*AccessLogHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.New(storeHandle.Store, accessLogHandle.Store, tokenService, log.Logger), nil
}
