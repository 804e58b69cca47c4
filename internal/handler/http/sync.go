package http

import (
	"encoding/json"
	"net/http"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/utils"
	"github.com/airsyncd/airsyncd/models"
)

// sync handles POST /api/sync: one synchronization round-trip. An entirely
// unchanged synchronization (long-poll timeout included) is answered with
// HTTP 200 and a zero-length body, not an empty JSON envelope.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	deviceID, found := utils.GetDeviceIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.sync").Msg("no device ID was given")
		http.Error(w, "no device ID was given", http.StatusBadRequest)
		return
	}

	var syncRequest models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&syncRequest); err != nil {
		log.Err(err).Str("func", "*Handler.sync").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.Sync(ctx, deviceID, syncRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.sync").Msg("error processing sync request")
		http.Error(w, "error processing sync request", statusFromError(err))
		return
	}

	if response.Empty {
		w.WriteHeader(http.StatusOK)
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// estimate handles GET /api/sync/estimate?collection_id=...&sync_key=...:
// the number of changes a Sync with the same key would deliver, without
// committing anything.
func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	deviceID, found := utils.GetDeviceIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.estimate").Msg("no device ID was given")
		http.Error(w, "no device ID was given", http.StatusBadRequest)
		return
	}

	collectionID := r.URL.Query().Get("collection_id")
	syncKey := r.URL.Query().Get("sync_key")
	if collectionID == "" || syncKey == "" {
		http.Error(w, "collection_id and sync_key are required", http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.Estimate(ctx, deviceID, collectionID, syncKey)
	if err != nil {
		log.Err(err).Str("func", "*Handler.estimate").Msg("error estimating pending changes")
		http.Error(w, "error estimating pending changes", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
