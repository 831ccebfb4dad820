package providers

import (
	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-explainer/internal/config"
	"github.com/thywilljoshua/pdf-explainer/internal/store/sqlite"
)

// StoreHandle wraps the job store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.ShutdownerWithError.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite job store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logrus.Logger](i)

	s, err := sqlite.Open(cfg.Storage.DatabasePath, log)
	if err != nil {
		return nil, err
	}
	log.WithField("path", cfg.Storage.DatabasePath).Info("Job database initialized")
	return &StoreHandle{Store: s}, nil
}
