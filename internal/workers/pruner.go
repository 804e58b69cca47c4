package workers

import (
	"context"
	"sync"
	"time"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/store"
)

// PrunerWorker periodically removes (device, collection) ledger rows that
// have not been touched within the retention window. A pruned device is
// not broken, only demoted: its next request is answered with an invalid
// key status and it restarts from an initial sync.
type PrunerWorker struct {
	states    store.SyncStateRepository
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPrunerWorker constructs an idle pruner.
func NewPrunerWorker(states store.SyncStateRepository, retention, interval time.Duration, logger *logger.Logger) *PrunerWorker {
	return &PrunerWorker{
		states:    states,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Start implements Worker. It prunes on a ticker until ctx is cancelled or
// Stop is called. If interval is zero or negative it defaults to one hour.
func (w *PrunerWorker) Start(ctx context.Context) {
	interval := w.interval
	if interval <= 0 {
		interval = time.Hour
	}

	w.Stop()

	w.mu.Lock()
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				w.prune(workerCtx)
			}
		}
	}()
}

// Stop implements Worker.
func (w *PrunerWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *PrunerWorker) prune(ctx context.Context) {
	removed, err := w.states.DeleteIdle(ctx, time.Now().Add(-w.retention))
	if err != nil {
		w.logger.Err(err).Str("func", "PrunerWorker.prune").Msg("pruning idle sync states failed")
		return
	}

	if removed > 0 {
		w.logger.Info().
			Str("func", "PrunerWorker.prune").
			Int64("removed", removed).
			Msg("idle sync states pruned")
	}
}
