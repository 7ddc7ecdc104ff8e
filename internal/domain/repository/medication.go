package repository

import (
	"context"
	"medreminder/internal/domain/entity"
)

// Snapshot is the full, non-filtered medication collection of one owner at a point in time.
type Snapshot []*entity.Medication

// Subscription is a live feed of snapshots. C is closed once Stop has been called.
type Subscription interface {
	C() <-chan Snapshot
	Stop()
}

// MedicationRepository is the schedule store: a per-owner collection of
// medication documents with a live change feed.
type MedicationRepository interface {
	// Create stores a new medication and returns the id the store assigned to it.
	Create(ctx context.Context, ownerID string, medication *entity.Medication) (string, error)
	// Update applies fields to an existing medication atomically.
	Update(ctx context.Context, ownerID, id string, fields entity.MedicationFields) error
	// FindByID retrieves a medication of ownerID by id.
	FindByID(ctx context.Context, ownerID, id string) (*entity.Medication, error)
	// FindByOwner retrieves every medication of ownerID, newest first.
	FindByOwner(ctx context.Context, ownerID string) ([]*entity.Medication, error)
	// FindActive retrieves active, non-deleted medications of every owner (used for rescheduling on startup).
	FindActive(ctx context.Context) ([]*entity.Medication, error)
	// Subscribe emits a full snapshot now and again after every change to ownerID's collection.
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
}
