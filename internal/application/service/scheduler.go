package service

import (
	"context"
	"medreminder/internal/application/dto"
	"medreminder/internal/domain/entity"
)

// MedicationFeed is a live, filtered view of one owner's medications.
// C is closed after Stop.
type MedicationFeed interface {
	C() <-chan []*entity.Medication
	Stop()
}

// MedicationLister streams an owner's non-deleted medications.
type MedicationLister interface {
	// ListActive streams the owner's non-deleted medications until Stop is called.
	ListActive(ctx context.Context, ownerID string) (MedicationFeed, error)
}

// ReminderScheduler keeps notification gateway triggers consistent with each
// active medication's schedule.
type ReminderScheduler interface {
	// CreateRecord validates and stores a new medication, then schedules its reminders.
	CreateRecord(ctx context.Context, ownerID string, input dto.MedicationInput) (*dto.SaveResult, error)
	// UpdateRecord replaces the editable fields and reconciles reminders position by position.
	UpdateRecord(ctx context.Context, ownerID, id string, input dto.MedicationInput) (*dto.SaveResult, error)
	// SetActive toggles the active flag only.
	SetActive(ctx context.Context, ownerID, id string, isActive bool) (*dto.SaveResult, error)
	// MarkDeleted cancels every reminder and soft-deletes the medication.
	MarkDeleted(ctx context.Context, ownerID, id string) error
	MedicationLister
	// RestoreReminders re-registers reminders of every active medication (used on startup).
	RestoreReminders(ctx context.Context) (int, error)
}
