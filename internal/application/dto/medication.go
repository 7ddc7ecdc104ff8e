package dto

import (
	"errors"
	"medreminder/internal/domain/entity"
	"time"
)

// MedicationInput is the DTO for creating or replacing a medication's editable fields.
type MedicationInput struct {
	Name        string             `json:"name"`
	Kind        string             `json:"kind"`
	Dose        string             `json:"dose"`
	TimesPerDay int                `json:"timesPerDay"`
	Schedule    []entity.TimeOfDay `json:"schedule"`
	IsActive    bool               `json:"isActive"`
}

// SetActiveRequest is the DTO for toggling a medication on or off.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

// SaveResult is returned by every successful save. Warnings hold non-fatal
// problems (permission refused, individual gateway failures).
type SaveResult struct {
	Medication *entity.Medication
	Warnings   []error
}

// HasWarning reports whether any warning matches target.
func (r *SaveResult) HasWarning(target error) bool {
	for _, w := range r.Warnings {
		if errors.Is(w, target) {
			return true
		}
	}
	return false
}

// MedicationResponse is the DTO for sending a medication to the client.
type MedicationResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Kind        string             `json:"kind"`
	Dose        string             `json:"dose"`
	TimesPerDay int                `json:"timesPerDay"`
	Schedule    []entity.TimeOfDay `json:"schedule"`
	IsActive    bool               `json:"isActive"`
	ReminderIDs []string           `json:"reminderIds"`
	CreatedAt   time.Time          `json:"createdAt"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// ToMedicationResponse converts an entity.Medication to a MedicationResponse DTO.
func ToMedicationResponse(m *entity.Medication) MedicationResponse {
	schedule := append([]entity.TimeOfDay{}, m.Schedule...)
	return MedicationResponse{
		ID:          m.ID,
		Name:        m.Name,
		Kind:        m.Kind.String(),
		Dose:        m.Dose,
		TimesPerDay: m.TimesPerDay,
		Schedule:    schedule,
		IsActive:    m.IsActive,
		ReminderIDs: m.LiveReminderIDs(),
		CreatedAt:   m.CreatedAt,
	}
}

// ToMedicationResponseList converts a slice of entity.Medication to a slice of MedicationResponse DTOs.
func ToMedicationResponseList(medications []*entity.Medication) []MedicationResponse {
	list := make([]MedicationResponse, len(medications))
	for i, m := range medications {
		list[i] = ToMedicationResponse(m)
	}
	return list
}

// ToSaveResponse converts a SaveResult, warnings included.
func ToSaveResponse(r *SaveResult) MedicationResponse {
	resp := ToMedicationResponse(r.Medication)
	for _, w := range r.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp
}
