package service

import (
	"github.com/airsyncd/airsyncd/internal/config"
	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/store"
)

type Services struct {
	AuthService   AuthService
	SyncService   SyncService
	SearchService SearchService

	// Coordinator is exposed so the transport layer can feed websocket
	// watchers from the same hub the sync engine publishes to.
	Coordinator *ChangeCoordinator

	// Monitor is exposed so the composition root can start and stop the
	// stats reporter with the process lifecycle.
	Monitor *Monitor
}

func NewServices(storages *store.Storages, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	coordinator := NewChangeCoordinator(logger)
	monitor := NewMonitor(logger)

	return &Services{
		AuthService:   NewAuthService(storages.DeviceRepository, cfg.App, logger),
		SyncService:   NewSyncService(storages.ItemStore, storages.SyncStateRepository, coordinator, monitor, logger),
		SearchService: NewSearchService(storages.ItemStore, logger),
		Coordinator:   coordinator,
		Monitor:       monitor,
	}
}
