package models

import "time"

// ChangeEvent is one change-log advancement published to websocket
// subscribers on /api/notify. It carries no payload, only the fact that
// the collection moved forward; subscribers follow up with a Sync request.
type ChangeEvent struct {
	CollectionID string    `json:"collection_id"`
	Seq          int64     `json:"seq"`
	At           time.Time `json:"at"`
}

// EstimateResponse is the result of the pending-change estimate endpoint:
// the number of changes a Sync with the same key would deliver, without
// committing anything.
type EstimateResponse struct {
	CollectionID string `json:"collection_id"`
	Status       Status `json:"status"`
	Estimate     int    `json:"estimate"`
}
