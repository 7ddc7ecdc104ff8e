package gormdb

import (
	"context"
	"errors"
	"fmt"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	"medreminder/internal/infrastructure/feed"
	"medreminder/internal/pkg/logger"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type medicationRepository struct {
	db   *gorm.DB
	feed feed.Feed
	log  logger.Logger
}

// NewMedicationRepository creates a new instance of MedicationRepository.
// Every successful write is announced on f.
func NewMedicationRepository(db *gorm.DB, f feed.Feed, log logger.Logger) repository.MedicationRepository {
	return &medicationRepository{db: db, feed: f, log: log}
}

func (r *medicationRepository) announce(ctx context.Context, ownerID string) {
	if err := r.feed.Publish(ctx, ownerID); err != nil {
		r.log.Error(fmt.Sprintf("Failed to announce medication change for owner %s", ownerID), err)
	}
}

// Create stores a new medication and returns its id.
func (r *medicationRepository) Create(ctx context.Context, ownerID string, medication *entity.Medication) (string, error) {
	if medication.ID == "" {
		medication.ID = uuid.NewString()
	}
	medication.OwnerID = ownerID
	if medication.CreatedAt.IsZero() {
		medication.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(medication).Error; err != nil {
		return "", fmt.Errorf("failed to create medication for owner %s: %w", ownerID, err)
	}
	r.announce(ctx, ownerID)
	return medication.ID, nil
}

// Update applies fields to the medication inside a transaction.
func (r *medicationRepository) Update(ctx context.Context, ownerID, id string, fields entity.MedicationFields) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var medication entity.Medication
		if err := tx.Where("owner_id = ? AND id = ?", ownerID, id).First(&medication).Error; err != nil {
			return err
		}
		fields.Apply(&medication)
		return tx.Save(&medication).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("medication %s of owner %s: %w", id, ownerID, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to update medication %s: %w", id, err)
	}
	r.announce(ctx, ownerID)
	return nil
}

// FindByID retrieves a medication of ownerID by id.
func (r *medicationRepository) FindByID(ctx context.Context, ownerID, id string) (*entity.Medication, error) {
	var medication entity.Medication
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).First(&medication).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("medication %s of owner %s: %w", id, ownerID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find medication %s: %w", id, err)
	}
	return &medication, nil
}

// FindByOwner retrieves all medications of ownerID, newest first.
func (r *medicationRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entity.Medication, error) {
	var medications []*entity.Medication
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at desc").Find(&medications).Error; err != nil {
		return nil, fmt.Errorf("failed to find medications of owner %s: %w", ownerID, err)
	}
	return medications, nil
}

// FindActive retrieves every active, non-deleted medication.
func (r *medicationRepository) FindActive(ctx context.Context) ([]*entity.Medication, error) {
	var medications []*entity.Medication
	if err := r.db.WithContext(ctx).Where("is_active = ? AND is_deleted = ?", true, false).Find(&medications).Error; err != nil {
		return nil, fmt.Errorf("failed to find active medications: %w", err)
	}
	return medications, nil
}

// Subscribe emits ownerID's collection now and after every change.
func (r *medicationRepository) Subscribe(ctx context.Context, ownerID string) (repository.Subscription, error) {
	return feed.Watch(ctx, r.feed, ownerID, func(ctx context.Context) (repository.Snapshot, error) {
		return r.FindByOwner(ctx, ownerID)
	}, r.log)
}
