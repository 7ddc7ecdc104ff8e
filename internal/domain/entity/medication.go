package entity

import (
	"medreminder/internal/domain/constant"
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Medication is one medicine a user tracks together with its daily schedule.
//
// ReminderIDs is positional: slot i holds the gateway id of the trigger for
// Schedule[i], or "" when scheduling that slot failed. It is empty whenever
// the medication is inactive or deleted.
type Medication struct {
	ID          string                         `gorm:"column:id;primaryKey" json:"id"`
	OwnerID     string                         `gorm:"column:owner_id;index;not null" json:"ownerId"`
	Name        string                         `gorm:"column:name;not null" json:"name"`
	Kind        constant.MedicineKind          `gorm:"column:kind;type:varchar(16)" json:"kind"`
	Dose        string                         `gorm:"column:dose" json:"dose"`
	TimesPerDay int                            `gorm:"column:times_per_day" json:"timesPerDay"`
	Schedule    datatypes.JSONSlice[TimeOfDay] `gorm:"column:schedule" json:"schedule"`
	IsActive    bool                           `gorm:"column:is_active" json:"isActive"`
	IsDeleted   bool                           `gorm:"column:is_deleted;index" json:"isDeleted"`
	ReminderIDs datatypes.JSONSlice[string]    `gorm:"column:reminder_ids" json:"reminderIds"`
	CreatedAt   time.Time                      `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName specifies the table name for the Medication entity.
func (Medication) TableName() string {
	return "medications"
}

// LiveReminderIDs returns the non-empty reminder ids.
func (m *Medication) LiveReminderIDs() []string {
	ids := make([]string, 0, len(m.ReminderIDs))
	for _, id := range m.ReminderIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns a deep copy of m.
func (m *Medication) Clone() *Medication {
	if m == nil {
		return nil
	}
	c := *m
	c.Schedule = slices.Clone(m.Schedule)
	c.ReminderIDs = slices.Clone(m.ReminderIDs)
	return &c
}

// MedicationFields is a partial update. Nil fields are left untouched.
type MedicationFields struct {
	Name        *string
	Kind        *constant.MedicineKind
	Dose        *string
	TimesPerDay *int
	Schedule    []TimeOfDay
	IsActive    *bool
	IsDeleted   *bool
	ReminderIDs *[]string
}

// Apply writes the non-nil fields onto m.
func (f MedicationFields) Apply(m *Medication) {
	if f.Name != nil {
		m.Name = *f.Name
	}
	if f.Kind != nil {
		m.Kind = *f.Kind
	}
	if f.Dose != nil {
		m.Dose = *f.Dose
	}
	if f.TimesPerDay != nil {
		m.TimesPerDay = *f.TimesPerDay
	}
	if f.Schedule != nil {
		m.Schedule = slices.Clone(f.Schedule)
	}
	if f.IsActive != nil {
		m.IsActive = *f.IsActive
	}
	if f.IsDeleted != nil {
		m.IsDeleted = *f.IsDeleted
	}
	if f.ReminderIDs != nil {
		m.ReminderIDs = slices.Clone(*f.ReminderIDs)
	}
}
