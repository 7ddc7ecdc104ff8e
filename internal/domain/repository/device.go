package repository

import (
	"context"
	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/entity"
)

// DeviceRepository defines the interface for delivery target operations.
type DeviceRepository interface {
	// Upsert stores device unless an identical (owner, provider, target) row exists.
	Upsert(ctx context.Context, device *entity.Device) error
	// FindByOwner retrieves every device registered by ownerID.
	FindByOwner(ctx context.Context, ownerID string) ([]*entity.Device, error)
	// Delete removes the matching device. Deleting a missing device is not an error.
	Delete(ctx context.Context, ownerID string, provider constant.Provider, target string) error
}
