package http

import (
	"net/http"
	"strings"

	"github.com/airsyncd/airsyncd/internal/logger"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// notify handles GET /api/notify: a websocket stream of change events for
// the collections named in the comma-separated "collections" query
// parameter (all collections when absent). Events carry no payload, only
// the fact that a collection's change log advanced; the client follows up
// with a Sync request.
func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var collectionIDs []string
	if raw := r.URL.Query().Get("collections"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				collectionIDs = append(collectionIDs, id)
			}
		}
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Err(err).Str("func", "*Handler.notify").Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	events, cancel := h.services.Coordinator.Subscribe(collectionIDs)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := wsjson.Write(ctx, conn, event); err != nil {
				log.Debug().Err(err).Str("func", "*Handler.notify").Msg("websocket write failed, closing stream")
				return
			}
		}
	}
}
