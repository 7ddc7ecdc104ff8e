package service

import "medreminder/internal/domain/entity"

// reminderState is what the diff needs to know about one side of a change.
type reminderState struct {
	schedule []entity.TimeOfDay
	ids      []string
	active   bool
	name     string // baked into every trigger body
}

// reminderPlan lists the gateway calls that move a medication from one
// reminderState to another. All cancels are issued before any schedule.
type reminderPlan struct {
	cancel   []string
	schedule []int          // positions in the new schedule that need a fresh trigger
	keep     map[int]string // positions whose trigger survives unchanged
	size     int            // length of the resulting reminder id slice
}

func idAt(ids []string, i int) string {
	if i < len(ids) {
		return ids[i]
	}
	return ""
}

// planReminders diffs old against next by position: slot i of the old
// schedule is compared with slot i of the new one, never by value, so a
// reordering reschedules every moved slot. permitted=false behaves like an
// inactive target. Slots whose previous scheduling failed ("" id) are retried.
// A rename reschedules every slot since the name is part of the trigger text.
func planReminders(old, next reminderState, permitted bool) reminderPlan {
	plan := reminderPlan{keep: make(map[int]string)}

	if !next.active || !permitted {
		for _, id := range old.ids {
			if id != "" {
				plan.cancel = append(plan.cancel, id)
			}
		}
		return plan
	}

	plan.size = len(next.schedule)

	if !old.active || old.name != next.name {
		for _, id := range old.ids {
			if id != "" {
				plan.cancel = append(plan.cancel, id)
			}
		}
		for i := range next.schedule {
			plan.schedule = append(plan.schedule, i)
		}
		return plan
	}

	n := max(len(old.schedule), len(old.ids), len(next.schedule))
	for i := 0; i < n; i++ {
		oldID := idAt(old.ids, i)
		switch {
		case i >= len(next.schedule):
			if oldID != "" {
				plan.cancel = append(plan.cancel, oldID)
			}
		case i >= len(old.schedule):
			if oldID != "" {
				plan.cancel = append(plan.cancel, oldID)
			}
			plan.schedule = append(plan.schedule, i)
		case old.schedule[i] == next.schedule[i] && oldID != "":
			plan.keep[i] = oldID
		default:
			if oldID != "" {
				plan.cancel = append(plan.cancel, oldID)
			}
			plan.schedule = append(plan.schedule, i)
		}
	}
	return plan
}
