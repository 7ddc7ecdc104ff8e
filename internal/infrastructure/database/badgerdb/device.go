package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	"sort"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/google/uuid"
)

type deviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a badger backed DeviceRepository.
func NewDeviceRepository(db *DB) repository.DeviceRepository {
	return &deviceRepository{db: db}
}

func deviceKey(ownerID string, provider constant.Provider, target string) []byte {
	return keyPrefix("device", ownerID, string(provider), target)
}

func (r *deviceRepository) Upsert(_ context.Context, device *entity.Device) error {
	key := deviceKey(device.OwnerID, device.Provider, device.Target)
	err := r.db.db.Update(func(tx *badger.Txn) error {
		var existing entity.Device
		err := get(tx, key, &existing)
		if err == nil {
			*device = existing
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if device.ID == "" {
			device.ID = uuid.NewString()
		}
		if device.CreatedAt.IsZero() {
			device.CreatedAt = time.Now()
		}
		return put(tx, key, device)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert device for owner %s: %w", device.OwnerID, err)
	}
	return nil
}

func (r *deviceRepository) FindByOwner(_ context.Context, ownerID string) ([]*entity.Device, error) {
	var devices []*entity.Device
	err := r.db.db.View(func(tx *badger.Txn) error {
		return scan(tx, keyPrefix("device", ownerID), func(val []byte) error {
			device := &entity.Device{}
			if err := json.Unmarshal(val, device); err != nil {
				return err
			}
			if device.OwnerID == ownerID {
				devices = append(devices, device)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find devices of owner %s: %w", ownerID, err)
	}
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].CreatedAt.Before(devices[j].CreatedAt)
	})
	return devices, nil
}

func (r *deviceRepository) Delete(_ context.Context, ownerID string, provider constant.Provider, target string) error {
	err := r.db.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(deviceKey(ownerID, provider, target))
	})
	if err != nil {
		return fmt.Errorf("failed to delete device for owner %s: %w", ownerID, err)
	}
	return nil
}
