package store

import (
	"context"
	"fmt"

	"github.com/airsyncd/airsyncd/internal/config"
	"github.com/airsyncd/airsyncd/internal/logger"
)

// Storages aggregates every persistence backend the engine depends on.
type Storages struct {
	ItemStore           ItemStore
	SyncStateRepository SyncStateRepository
	DeviceRepository    DeviceRepository
}

// NewStorages wires the storage backends selected by the configuration:
//
//   - "postgres": SQL repositories over a pgx connection (migrated on start)
//   - "sqlite"  : the same repositories over a file-backed SQLite database
//   - "memory"  : in-memory stores for development and tests
//
// The memory driver pre-seeds the standard account collections; the SQL
// drivers seed them through migrations.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	switch cfg.Driver {
	case "memory", "":
		return &Storages{
			ItemStore:           NewDefaultMemoryStore(),
			SyncStateRepository: NewMemorySyncStateRepository(),
			DeviceRepository:    NewMemoryDeviceRepository(),
		}, nil

	case "postgres":
		db, err := NewConnectPostgres(ctx, cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("error connecting postgres: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, fmt.Errorf("error migrating database: %w", err)
		}
		return newSQLStorages(db, log), nil

	case "sqlite":
		db, err := NewConnectSQLite(ctx, cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("error connecting sqlite: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, fmt.Errorf("error migrating database: %w", err)
		}
		return newSQLStorages(db, log), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func newSQLStorages(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		ItemStore:           NewItemRepository(db, log),
		SyncStateRepository: NewSyncStateRepository(db, log),
		DeviceRepository:    NewDeviceRepository(db, log),
	}
}
