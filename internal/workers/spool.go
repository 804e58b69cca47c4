package workers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/service"
	"github.com/airsyncd/airsyncd/internal/store"
	"github.com/airsyncd/airsyncd/models"
	"github.com/fsnotify/fsnotify"
)

// spoolEnvelope is the on-disk form of one spooled item: a JSON file
// dropped into the spool directory by an external delivery agent.
type spoolEnvelope struct {
	CollectionID   string            `json:"collection_id"`
	Class          models.Class      `json:"class,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Props          map[string]string `json:"props"`
}

// SpoolWorker watches a directory for dropped-in item files and ingests
// each into its collection. A successfully ingested file is removed; a
// malformed one is left in place and logged so it can be inspected.
type SpoolWorker struct {
	dir         string
	items       store.ItemStore
	coordinator *service.ChangeCoordinator
	logger      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSpoolWorker constructs an idle spool worker over dir.
func NewSpoolWorker(dir string, items store.ItemStore, coordinator *service.ChangeCoordinator, logger *logger.Logger) *SpoolWorker {
	return &SpoolWorker{
		dir:         dir,
		items:       items,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Start implements Worker. It ingests files already present in the spool
// directory, then watches for newly created ones until ctx is cancelled
// or Stop is called.
func (w *SpoolWorker) Start(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		w.run(workerCtx)
	}()
}

// Stop implements Worker.
func (w *SpoolWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *SpoolWorker) run(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Err(err).Str("func", "SpoolWorker.run").Msg("creating spool watcher failed")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		w.logger.Err(err).
			Str("func", "SpoolWorker.run").
			Str("dir", w.dir).
			Msg("watching spool directory failed")
		return
	}

	// Files dropped before the watch was established would otherwise sit
	// forever.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Writers are expected to create the file elsewhere and move
			// it in; a short delay covers direct writers too.
			time.Sleep(50 * time.Millisecond)
			w.ingest(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Err(err).Str("func", "SpoolWorker.run").Msg("spool watcher error")
		}
	}
}

func (w *SpoolWorker) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Err(err).Str("func", "SpoolWorker.sweep").Msg("reading spool directory failed")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

func (w *SpoolWorker) ingest(ctx context.Context, path string) {
	if !strings.HasSuffix(path, ".json") {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		w.logger.Err(err).Str("func", "SpoolWorker.ingest").Str("path", path).Msg("reading spool file failed")
		return
	}

	var envelope spoolEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		w.logger.Err(err).Str("func", "SpoolWorker.ingest").Str("path", path).Msg("malformed spool file left in place")
		return
	}
	if envelope.CollectionID == "" {
		w.logger.Error().Str("func", "SpoolWorker.ingest").Str("path", path).Msg("spool file names no collection, left in place")
		return
	}

	collection, err := w.items.Collection(ctx, envelope.CollectionID)
	if err != nil {
		w.logger.Err(err).
			Str("func", "SpoolWorker.ingest").
			Str("path", path).
			Str("collection_id", envelope.CollectionID).
			Msg("resolving spool target collection failed")
		return
	}

	class := envelope.Class
	if class == "" {
		class = collection.Class
	}

	created, err := w.items.ApplyAdd(ctx, models.Item{
		CollectionID:   collection.ID,
		Class:          class,
		ConversationID: envelope.ConversationID,
		Props:          envelope.Props,
	})
	if err != nil {
		w.logger.Err(err).
			Str("func", "SpoolWorker.ingest").
			Str("path", path).
			Str("collection_id", collection.ID).
			Msg("ingesting spool file failed")
		return
	}

	w.coordinator.Publish(models.ChangeEvent{
		CollectionID: collection.ID,
		Seq:          created.Version,
		At:           time.Now(),
	})

	if err := os.Remove(path); err != nil {
		w.logger.Err(err).Str("func", "SpoolWorker.ingest").Str("path", path).Msg("removing ingested spool file failed")
		return
	}

	w.logger.Info().
		Str("func", "SpoolWorker.ingest").
		Str("collection_id", collection.ID).
		Str("server_id", created.ServerID).
		Msg("spool file ingested")
}
