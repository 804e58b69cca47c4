package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/models"
)

// deviceRepository is the SQL-backed implementation of [DeviceRepository].
type deviceRepository struct {
	*DB
	logger *logger.Logger
}

// NewDeviceRepository constructs a [DeviceRepository] backed by the
// provided database connection and logger.
func NewDeviceRepository(db *DB, logger *logger.Logger) DeviceRepository {
	return &deviceRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateDevice inserts a new device account. A unique-constraint violation
// on the login column is mapped onto [ErrLoginAlreadyExists].
func (r *deviceRepository) CreateDevice(ctx context.Context, device models.Device) (models.Device, error) {
	log := logger.FromContext(ctx)

	var created models.Device
	err := r.DB.QueryRowContext(ctx, createDevice,
		device.DeviceID,
		device.Login,
		device.Password,
	).Scan(
		&created.ID,
		&created.DeviceID,
		&created.Login,
		&created.Password,
		&created.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			log.Warn().
				Str("func", "deviceRepository.CreateDevice").
				Str("login", device.Login).
				Msg("login already exists")
			return models.Device{}, ErrLoginAlreadyExists
		}

		log.Err(err).
			Str("func", "deviceRepository.CreateDevice").
			Str("login", device.Login).
			Msg("failed to create device")
		return models.Device{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return created, nil
}

// FindDeviceByLogin retrieves a device account by its unique login.
// Returns [ErrNoDeviceWasFound] on an empty result set.
func (r *deviceRepository) FindDeviceByLogin(ctx context.Context, login string) (models.Device, error) {
	log := logger.FromContext(ctx)

	var device models.Device
	err := r.DB.QueryRowContext(ctx, findDeviceByLogin, login).Scan(
		&device.ID,
		&device.DeviceID,
		&device.Login,
		&device.Password,
		&device.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Device{}, ErrNoDeviceWasFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "deviceRepository.FindDeviceByLogin").
			Str("login", login).
			Msg("failed to query device")
		return models.Device{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return device, nil
}
