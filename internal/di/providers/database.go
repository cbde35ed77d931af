package providers

import (
	"github.com/samber/do/v2"

	"github.com/signboardapp/signboard-server/internal/config"
	"github.com/signboardapp/signboard-server/internal/logger"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/store/accesslog"
)

// StoreHandle wraps the document store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Data.DocumentStorePath()
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Document store initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// AccessLogHandle wraps the SQLite access log with shutdown capability.
type AccessLogHandle struct {
	*accesslog.Store
}

// Shutdown implements do.Shutdownable.
func (h *AccessLogHandle) Shutdown() error {
	return h.Close()
}

// ProvideAccessLog provides the SQLite device-access history store.
func ProvideAccessLog(i do.Injector) (*AccessLogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Data.AccessLogPath()
	db, err := accesslog.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Access log initialized", "path", dbPath)

	return &AccessLogHandle{Store: db}, nil
}
