// Package workers hosts the background processes of the server: spool
// directory ingestion and sync-state retention pruning.
package workers

import (
	"context"

	"github.com/airsyncd/airsyncd/internal/config"
	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/service"
	"github.com/airsyncd/airsyncd/internal/store"
)

// Workers aggregates every background worker enabled by the
// configuration.
type Workers struct {
	workers []Worker
}

// NewWorkers wires the workers the configuration enables: the spool
// ingester when a spool directory is set, the pruner when a retention
// window is set.
func NewWorkers(storages *store.Storages, services *service.Services, cfg *config.StructuredConfig, logger *logger.Logger) *Workers {
	w := &Workers{}

	if cfg.Workers.SpoolDir != "" {
		w.workers = append(w.workers, NewSpoolWorker(cfg.Workers.SpoolDir, storages.ItemStore, services.Coordinator, logger))
	}

	if cfg.Sync.StateRetention > 0 {
		w.workers = append(w.workers, NewPrunerWorker(storages.SyncStateRepository, cfg.Sync.StateRetention, cfg.Workers.PruneInterval, logger))
	}

	return w
}

// StartAll launches every enabled worker against ctx.
func (w *Workers) StartAll(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// StopAll stops every worker and blocks until all have exited.
func (w *Workers) StopAll() {
	for _, worker := range w.workers {
		worker.Stop()
	}
}
