package service

import (
	"context"
	"errors"
	"fmt"
	"medreminder/internal/application/dto"
	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	appErrors "medreminder/internal/pkg/errors"
	"medreminder/internal/pkg/logger"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultReminderTitle = "Medication Reminder"
	restoreConcurrency   = 8
)

type reminderScheduler struct {
	medicationRepo repository.MedicationRepository
	gateway        NotificationGateway
	title          string
	locks          *recordLocks
	now            func() time.Time
	log            logger.Logger
}

// NewReminderScheduler creates a new instance of ReminderScheduler.
// title is used for every reminder; an empty title falls back to "Medication Reminder".
func NewReminderScheduler(
	medicationRepo repository.MedicationRepository,
	gateway NotificationGateway,
	title string,
	log logger.Logger,
) ReminderScheduler {
	if title == "" {
		title = defaultReminderTitle
	}
	return &reminderScheduler{
		medicationRepo: medicationRepo,
		gateway:        gateway,
		title:          title,
		locks:          newRecordLocks(),
		now:            time.Now,
		log:            log,
	}
}

func lockKey(ownerID, id string) string {
	return ownerID + "/" + id
}

// validateInput checks input and returns the normalised name and kind.
func validateInput(input dto.MedicationInput) (string, constant.MedicineKind, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", appErrors.NewValidationError("name", "must not be empty")
	}
	kind, ok := constant.ParseKind(input.Kind)
	if !ok {
		return "", "", appErrors.NewValidationError("kind", fmt.Sprintf("must be one of pill, injection, syrup, other (got %q)", input.Kind))
	}
	if strings.TrimSpace(input.Dose) == "" {
		return "", "", appErrors.NewValidationError("dose", "must not be empty")
	}
	if input.TimesPerDay < 1 {
		return "", "", appErrors.NewValidationError("timesPerDay", "must be at least 1")
	}
	if len(input.Schedule) != input.TimesPerDay {
		return "", "", appErrors.NewValidationError("schedule",
			fmt.Sprintf("has %d entries, timesPerDay is %d", len(input.Schedule), input.TimesPerDay))
	}
	for i, t := range input.Schedule {
		if !t.Valid() {
			return "", "", appErrors.NewValidationError(fmt.Sprintf("schedule[%d]", i),
				fmt.Sprintf("%02d:%02d is not a valid time of day", t.Hour, t.Minute))
		}
	}
	return name, kind, nil
}

func (s *reminderScheduler) trigger(name string, at entity.TimeOfDay) entity.Trigger {
	return entity.Trigger{
		Title:   s.title,
		Body:    fmt.Sprintf("Don't forget to take your medicine: %s", name),
		Hour:    at.Hour,
		Minute:  at.Minute,
		Repeats: true,
	}
}

// permitted asks the gateway whether ownerID can receive reminders. A refusal
// or a failing permission check becomes a warning, never an error.
func (s *reminderScheduler) permitted(ctx context.Context, ownerID string, warnings *[]error) bool {
	ok, err := s.gateway.RequestPermission(ctx, ownerID)
	if err != nil {
		s.log.Error(fmt.Sprintf("Permission check failed for owner %s", ownerID), err)
		*warnings = append(*warnings, fmt.Errorf("%w: permission check: %v", appErrors.ErrGateway, err))
		return false
	}
	if !ok {
		s.log.Warn(fmt.Sprintf("Owner %s has not granted notification permission; no reminders scheduled.", ownerID))
		*warnings = append(*warnings, appErrors.ErrPermissionDenied)
		return false
	}
	return true
}

// execute runs plan against the gateway and returns the positional reminder
// ids. Cancels all settle before the first schedule call. Gateway failures
// are logged and reported as warnings; a failed slot is left "".
func (s *reminderScheduler) execute(ctx context.Context, ownerID, name string, schedule []entity.TimeOfDay, plan reminderPlan, warnings *[]error) []string {
	for _, id := range plan.cancel {
		if err := s.gateway.Cancel(ctx, id); err != nil {
			s.log.Error(fmt.Sprintf("Failed to cancel reminder %s of owner %s", id, ownerID), err)
			*warnings = append(*warnings, fmt.Errorf("%w: cancel %s: %v", appErrors.ErrGateway, id, err))
		}
	}

	if plan.size == 0 {
		return nil
	}

	ids := make([]string, plan.size)
	for i, id := range plan.keep {
		ids[i] = id
	}
	for _, i := range plan.schedule {
		id, err := s.gateway.Schedule(ctx, ownerID, s.trigger(name, schedule[i]))
		if err != nil {
			s.log.Error(fmt.Sprintf("Failed to schedule reminder at %s for %s of owner %s", schedule[i], name, ownerID), err)
			*warnings = append(*warnings, fmt.Errorf("%w: schedule %s: %v", appErrors.ErrGateway, schedule[i], err))
			continue
		}
		ids[i] = id
	}
	return ids
}

func (s *reminderScheduler) load(ctx context.Context, ownerID, id string) (*entity.Medication, error) {
	medication, err := s.medicationRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", appErrors.ErrMedicationNotFound, id)
		}
		s.log.Error(fmt.Sprintf("Failed to read medication %s of owner %s", id, ownerID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
	}
	return medication, nil
}

func (s *reminderScheduler) persist(ctx context.Context, ownerID, id string, fields entity.MedicationFields) error {
	if err := s.medicationRepo.Update(ctx, ownerID, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", appErrors.ErrMedicationNotFound, id)
		}
		s.log.Error(fmt.Sprintf("Failed to persist medication %s of owner %s", id, ownerID), err)
		return fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
	}
	return nil
}

// CreateRecord stores the medication first, then schedules its reminders and
// stores their ids in a follow-up update.
func (s *reminderScheduler) CreateRecord(ctx context.Context, ownerID string, input dto.MedicationInput) (*dto.SaveResult, error) {
	name, kind, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	medication := &entity.Medication{
		OwnerID:     ownerID,
		Name:        name,
		Kind:        kind,
		Dose:        input.Dose,
		TimesPerDay: input.TimesPerDay,
		Schedule:    append([]entity.TimeOfDay{}, input.Schedule...),
		IsActive:    input.IsActive,
		CreatedAt:   s.now(),
	}

	id, err := s.medicationRepo.Create(ctx, ownerID, medication)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to create medication for owner %s", ownerID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
	}
	medication.ID = id

	unlock := s.locks.lock(lockKey(ownerID, id))
	defer unlock()

	result := &dto.SaveResult{Medication: medication}
	if !medication.IsActive || !s.permitted(ctx, ownerID, &result.Warnings) {
		s.log.Info(fmt.Sprintf("Created medication %s for owner %s without reminders", id, ownerID))
		return result, nil
	}

	plan := planReminders(reminderState{}, reminderState{schedule: medication.Schedule, active: true}, true)
	ids := s.execute(ctx, ownerID, name, medication.Schedule, plan, &result.Warnings)

	if err := s.persist(ctx, ownerID, id, entity.MedicationFields{ReminderIDs: &ids}); err != nil {
		return nil, err
	}
	medication.ReminderIDs = ids

	s.log.Info(fmt.Sprintf("Created medication %s for owner %s with %d reminders", id, ownerID, len(medication.LiveReminderIDs())))
	return result, nil
}

// reconcile moves current to next: it diffs reminders, issues the gateway
// calls, and writes every field plus the new reminder ids in one store update.
func (s *reminderScheduler) reconcile(ctx context.Context, current, next *entity.Medication) (*dto.SaveResult, error) {
	result := &dto.SaveResult{}

	permitted := true
	if next.IsActive {
		permitted = s.permitted(ctx, current.OwnerID, &result.Warnings)
	}

	plan := planReminders(
		reminderState{schedule: current.Schedule, ids: current.ReminderIDs, active: current.IsActive, name: current.Name},
		reminderState{schedule: next.Schedule, active: next.IsActive, name: next.Name},
		permitted,
	)
	ids := s.execute(ctx, current.OwnerID, next.Name, next.Schedule, plan, &result.Warnings)

	schedule := []entity.TimeOfDay(next.Schedule)
	fields := entity.MedicationFields{
		Name:        &next.Name,
		Kind:        &next.Kind,
		Dose:        &next.Dose,
		TimesPerDay: &next.TimesPerDay,
		Schedule:    schedule,
		IsActive:    &next.IsActive,
		ReminderIDs: &ids,
	}
	if err := s.persist(ctx, current.OwnerID, current.ID, fields); err != nil {
		return nil, err
	}

	next.ReminderIDs = ids
	result.Medication = next
	return result, nil
}

// UpdateRecord replaces dose, kind, schedule, timesPerDay, name and the active flag.
func (s *reminderScheduler) UpdateRecord(ctx context.Context, ownerID, id string, input dto.MedicationInput) (*dto.SaveResult, error) {
	name, kind, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(lockKey(ownerID, id))
	defer unlock()

	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if current.IsDeleted {
		return nil, fmt.Errorf("%w: %s", appErrors.ErrMedicationNotFound, id)
	}

	next := current.Clone()
	next.Name = name
	next.Kind = kind
	next.Dose = input.Dose
	next.TimesPerDay = input.TimesPerDay
	next.Schedule = append([]entity.TimeOfDay{}, input.Schedule...)
	next.IsActive = input.IsActive

	result, err := s.reconcile(ctx, current, next)
	if err != nil {
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Updated medication %s of owner %s (%d live reminders)", id, ownerID, len(result.Medication.LiveReminderIDs())))
	return result, nil
}

// SetActive toggles the active flag and schedules or cancels reminders accordingly.
func (s *reminderScheduler) SetActive(ctx context.Context, ownerID, id string, isActive bool) (*dto.SaveResult, error) {
	unlock := s.locks.lock(lockKey(ownerID, id))
	defer unlock()

	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if current.IsDeleted {
		return nil, fmt.Errorf("%w: %s", appErrors.ErrMedicationNotFound, id)
	}

	next := current.Clone()
	next.IsActive = isActive

	result, err := s.reconcile(ctx, current, next)
	if err != nil {
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Set medication %s of owner %s active=%t", id, ownerID, isActive))
	return result, nil
}

// MarkDeleted cancels every reminder and soft-deletes the medication. Calling
// it again on a deleted medication rewrites the same terminal state.
func (s *reminderScheduler) MarkDeleted(ctx context.Context, ownerID, id string) error {
	unlock := s.locks.lock(lockKey(ownerID, id))
	defer unlock()

	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return err
	}

	for _, reminderID := range current.LiveReminderIDs() {
		if err := s.gateway.Cancel(ctx, reminderID); err != nil {
			s.log.Error(fmt.Sprintf("Failed to cancel reminder %s while deleting medication %s", reminderID, id), err)
		}
	}

	deleted, inactive := true, false
	noIDs := []string{}
	if err := s.persist(ctx, ownerID, id, entity.MedicationFields{
		IsDeleted:   &deleted,
		IsActive:    &inactive,
		ReminderIDs: &noIDs,
	}); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("Deleted medication %s of owner %s", id, ownerID))
	return nil
}

// ListActive streams the owner's non-deleted medications. The consumer must call Stop.
func (s *reminderScheduler) ListActive(ctx context.Context, ownerID string) (MedicationFeed, error) {
	return listActive(ctx, s.medicationRepo, ownerID, s.log)
}

// RestoreReminders schedules fresh reminders for every active medication.
// Gateway triggers do not survive a restart, so stored ids are replaced.
func (s *reminderScheduler) RestoreReminders(ctx context.Context) (int, error) {
	medications, err := s.medicationRepo.FindActive(ctx)
	if err != nil {
		s.log.Error("Failed to retrieve medications for reminder restore", err)
		return 0, fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
	}

	// No shared context: one failing medication must not abort the others.
	var restored atomic.Int32
	var g errgroup.Group
	g.SetLimit(restoreConcurrency)
	for _, m := range medications {
		g.Go(func() error {
			if err := s.restore(ctx, m); err != nil {
				return fmt.Errorf("medication %s: %w", m.ID, err)
			}
			restored.Add(1)
			return nil
		})
	}

	err = g.Wait()
	n := int(restored.Load())
	if err != nil {
		s.log.Error(fmt.Sprintf("Reminder restore incomplete. Restored: %d of %d; first failure", n, len(medications)), err)
		return n, nil
	}
	s.log.Info(fmt.Sprintf("Reminder restore complete. Restored: %d of %d", n, len(medications)))
	return n, nil
}

func (s *reminderScheduler) restore(ctx context.Context, m *entity.Medication) error {
	unlock := s.locks.lock(lockKey(m.OwnerID, m.ID))
	defer unlock()

	var warnings []error
	var ids []string
	if s.permitted(ctx, m.OwnerID, &warnings) {
		plan := planReminders(reminderState{}, reminderState{schedule: m.Schedule, active: true}, true)
		ids = s.execute(ctx, m.OwnerID, m.Name, m.Schedule, plan, &warnings)
	}
	return s.persist(ctx, m.OwnerID, m.ID, entity.MedicationFields{ReminderIDs: &ids})
}
