// Package adapter implements the client side of the synchronization API:
// a resty-based HTTP adapter used by the easctl command-line tool.
package adapter

import (
	"context"

	"github.com/airsyncd/airsyncd/models"
)

// ServerAdapter is the client-side contract of the server API.
type ServerAdapter interface {
	// Register creates a device account and caches the issued bearer
	// token on the adapter.
	Register(ctx context.Context, credentials models.Credentials) (string, error)

	// Login authenticates an existing account and caches the issued
	// bearer token on the adapter.
	Login(ctx context.Context, credentials models.Credentials) (string, error)

	// Sync posts one synchronization request. The second result is true
	// when the server answered with the empty (no payload) response.
	Sync(ctx context.Context, request models.SyncRequest) (models.SyncResponse, bool, error)

	// Estimate asks how many changes a Sync with the same key would
	// deliver.
	Estimate(ctx context.Context, collectionID, syncKey string) (models.EstimateResponse, error)

	// SetToken overrides the cached bearer token.
	SetToken(token string)

	// Token returns the cached bearer token.
	Token() string
}
