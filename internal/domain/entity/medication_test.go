package entity

import (
	"testing"

	"medreminder/internal/domain/constant"

	"github.com/stretchr/testify/assert"
)

func TestMedication_LiveReminderIDs(t *testing.T) {
	m := &Medication{ReminderIDs: []string{"a", "", "c"}}
	assert.Equal(t, []string{"a", "c"}, m.LiveReminderIDs())
	assert.Empty(t, (&Medication{}).LiveReminderIDs())
}

func TestMedication_CloneIsDeep(t *testing.T) {
	m := &Medication{Schedule: []TimeOfDay{At(8, 0)}, ReminderIDs: []string{"a"}}
	c := m.Clone()
	c.Schedule[0] = At(9, 0)
	c.ReminderIDs[0] = "b"
	assert.Equal(t, At(8, 0), m.Schedule[0])
	assert.Equal(t, "a", m.ReminderIDs[0])
}

func TestMedicationFields_Apply(t *testing.T) {
	m := &Medication{Name: "Aspirin", Kind: constant.KindPill, Dose: "100mg", IsActive: true, ReminderIDs: []string{"a"}}

	inactive := false
	ids := []string{}
	MedicationFields{IsActive: &inactive, ReminderIDs: &ids}.Apply(m)

	assert.Equal(t, "Aspirin", m.Name)
	assert.Equal(t, "100mg", m.Dose)
	assert.False(t, m.IsActive)
	assert.Empty(t, m.ReminderIDs)

	syrup := constant.KindSyrup
	MedicationFields{Kind: &syrup, Schedule: []TimeOfDay{At(7, 0)}}.Apply(m)
	assert.Equal(t, constant.KindSyrup, m.Kind)
	assert.Equal(t, []TimeOfDay{At(7, 0)}, []TimeOfDay(m.Schedule))
}
