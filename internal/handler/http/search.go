package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/service"
	"github.com/airsyncd/airsyncd/internal/utils"
)

// search handles GET /api/search?q=...&max=...: a directory lookup over
// the account's address books.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	query := r.URL.Query().Get("q")
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("max"))

	items, err := h.services.SearchService.SearchDirectory(ctx, query, maxResults)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDataProvided) {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}
		log.Err(err).Str("func", "*Handler.search").Msg("directory search failed")
		http.Error(w, "directory search failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, items, http.StatusOK)
}
