package store

import (
	"context"
	"sync"
	"time"

	"github.com/airsyncd/airsyncd/models"
)

// MemoryDeviceRepository is an in-memory implementation of
// [DeviceRepository] used by development deployments and tests.
type MemoryDeviceRepository struct {
	mu      sync.Mutex
	nextID  int64
	byLogin map[string]models.Device
}

var _ DeviceRepository = (*MemoryDeviceRepository)(nil)

// NewMemoryDeviceRepository constructs an empty repository.
func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{byLogin: make(map[string]models.Device)}
}

// CreateDevice implements [DeviceRepository].
func (r *MemoryDeviceRepository) CreateDevice(_ context.Context, device models.Device) (models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLogin[device.Login]; exists {
		return models.Device{}, ErrLoginAlreadyExists
	}

	r.nextID++
	device.ID = r.nextID
	device.CreatedAt = time.Now()
	r.byLogin[device.Login] = device

	return device, nil
}

// FindDeviceByLogin implements [DeviceRepository].
func (r *MemoryDeviceRepository) FindDeviceByLogin(_ context.Context, login string) (models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.byLogin[login]
	if !ok {
		return models.Device{}, ErrNoDeviceWasFound
	}
	return device, nil
}
