package gormdb

import (
	"context"
	"fmt"
	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new instance of DeviceRepository.
func NewDeviceRepository(db *gorm.DB) repository.DeviceRepository {
	return &deviceRepository{db: db}
}

// Upsert stores device unless the same owner/provider/target is already registered.
// On return device holds the stored row.
func (r *deviceRepository) Upsert(ctx context.Context, device *entity.Device) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.Device
		err := tx.Where("owner_id = ? AND provider = ? AND target = ?", device.OwnerID, device.Provider, device.Target).
			Limit(1).Find(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to look up device for owner %s: %w", device.OwnerID, err)
		}
		if existing.ID != "" {
			*device = existing
			return nil
		}

		if device.ID == "" {
			device.ID = uuid.NewString()
		}
		if device.CreatedAt.IsZero() {
			device.CreatedAt = time.Now()
		}
		if err := tx.Create(device).Error; err != nil {
			return fmt.Errorf("failed to create device for owner %s: %w", device.OwnerID, err)
		}
		return nil
	})
}

// FindByOwner retrieves every device registered by ownerID.
func (r *deviceRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entity.Device, error) {
	var devices []*entity.Device
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at asc").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to find devices of owner %s: %w", ownerID, err)
	}
	return devices, nil
}

// Delete removes the matching device.
func (r *deviceRepository) Delete(ctx context.Context, ownerID string, provider constant.Provider, target string) error {
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND provider = ? AND target = ?", ownerID, provider, target).
		Delete(&entity.Device{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete device for owner %s: %w", ownerID, err)
	}
	return nil
}
