package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	"medreminder/internal/infrastructure/feed"
	"medreminder/internal/pkg/logger"
	"sort"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/google/uuid"
)

type medicationRepository struct {
	db   *DB
	feed feed.Feed
	log  logger.Logger
}

// NewMedicationRepository creates a badger backed MedicationRepository.
func NewMedicationRepository(db *DB, f feed.Feed, log logger.Logger) repository.MedicationRepository {
	return &medicationRepository{db: db, feed: f, log: log}
}

func medicationKey(ownerID, id string) []byte {
	return keyPrefix("medication", ownerID, id)
}

func medicationOwnerPrefix(ownerID string) []byte {
	return keyPrefix("medication", ownerID)
}

// load reads the medication stored under (ownerID, id) and rejects records
// that belong to a different owner.
func load(tx *badger.Txn, ownerID, id string, medication *entity.Medication) error {
	if err := get(tx, medicationKey(ownerID, id), medication); err != nil {
		return err
	}
	if medication.OwnerID != ownerID || medication.ID != id {
		return badger.ErrKeyNotFound
	}
	return nil
}

func (r *medicationRepository) announce(ctx context.Context, ownerID string) {
	if err := r.feed.Publish(ctx, ownerID); err != nil {
		r.log.Error(fmt.Sprintf("Failed to announce medication change for owner %s", ownerID), err)
	}
}

func (r *medicationRepository) Create(ctx context.Context, ownerID string, medication *entity.Medication) (string, error) {
	if medication.ID == "" {
		medication.ID = uuid.NewString()
	}
	medication.OwnerID = ownerID
	if medication.CreatedAt.IsZero() {
		medication.CreatedAt = time.Now()
	}
	err := r.db.db.Update(func(tx *badger.Txn) error {
		return put(tx, medicationKey(ownerID, medication.ID), medication)
	})
	if err != nil {
		return "", fmt.Errorf("failed to create medication for owner %s: %w", ownerID, err)
	}
	r.announce(ctx, ownerID)
	return medication.ID, nil
}

func (r *medicationRepository) Update(ctx context.Context, ownerID, id string, fields entity.MedicationFields) error {
	err := r.db.db.Update(func(tx *badger.Txn) error {
		var medication entity.Medication
		if err := load(tx, ownerID, id, &medication); err != nil {
			return err
		}
		fields.Apply(&medication)
		return put(tx, medicationKey(ownerID, id), &medication)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("medication %s of owner %s: %w", id, ownerID, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to update medication %s: %w", id, err)
	}
	r.announce(ctx, ownerID)
	return nil
}

func (r *medicationRepository) FindByID(_ context.Context, ownerID, id string) (*entity.Medication, error) {
	medication := &entity.Medication{}
	err := r.db.db.View(func(tx *badger.Txn) error {
		return load(tx, ownerID, id, medication)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("medication %s of owner %s: %w", id, ownerID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find medication %s: %w", id, err)
	}
	return medication, nil
}

func (r *medicationRepository) list(prefix []byte, keep func(*entity.Medication) bool) ([]*entity.Medication, error) {
	var medications []*entity.Medication
	err := r.db.db.View(func(tx *badger.Txn) error {
		return scan(tx, prefix, func(val []byte) error {
			medication := &entity.Medication{}
			if err := json.Unmarshal(val, medication); err != nil {
				return err
			}
			if keep == nil || keep(medication) {
				medications = append(medications, medication)
			}
			return nil
		})
	})
	return medications, err
}

func (r *medicationRepository) FindByOwner(_ context.Context, ownerID string) ([]*entity.Medication, error) {
	medications, err := r.list(medicationOwnerPrefix(ownerID), func(m *entity.Medication) bool {
		return m.OwnerID == ownerID
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find medications of owner %s: %w", ownerID, err)
	}
	sort.SliceStable(medications, func(i, j int) bool {
		return medications[i].CreatedAt.After(medications[j].CreatedAt)
	})
	return medications, nil
}

func (r *medicationRepository) FindActive(_ context.Context) ([]*entity.Medication, error) {
	medications, err := r.list([]byte("medication:"), func(m *entity.Medication) bool {
		return m.IsActive && !m.IsDeleted
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find active medications: %w", err)
	}
	return medications, nil
}

func (r *medicationRepository) Subscribe(ctx context.Context, ownerID string) (repository.Subscription, error) {
	return feed.Watch(ctx, r.feed, ownerID, func(ctx context.Context) (repository.Snapshot, error) {
		return r.FindByOwner(ctx, ownerID)
	}, r.log)
}
