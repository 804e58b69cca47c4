package service

import (
	"context"

	"github.com/airsyncd/airsyncd/models"
)

// SyncService is the synchronization engine: it resolves presented sync
// keys against the ledger, applies client commands, enumerates server-side
// changes and commits advanced checkpoints.
type SyncService interface {
	// Sync processes one synchronization request for a device. Protocol
	// violations are reported through response statuses; the returned
	// error is reserved for infrastructure failures.
	Sync(ctx context.Context, deviceID string, request models.SyncRequest) (models.SyncResponse, error)

	// Estimate counts the changes a Sync with the same key would deliver,
	// without committing anything.
	Estimate(ctx context.Context, deviceID, collectionID, syncKey string) (models.EstimateResponse, error)
}

type AuthService interface {
	RegisterDevice(ctx context.Context, credentials models.Credentials) (models.Device, error)
	Login(ctx context.Context, credentials models.Credentials) (models.Device, error)
	CreateToken(ctx context.Context, device models.Device) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// SearchService resolves directory lookups against the account's address
// books. It is a separate boundary so a directory backend can replace the
// collection-backed default without touching the sync engine.
type SearchService interface {
	// SearchDirectory returns contact items whose properties contain the
	// query string, at most maxResults of them.
	SearchDirectory(ctx context.Context, query string, maxResults int) ([]models.Item, error)
}
