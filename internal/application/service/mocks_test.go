package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	"medreminder/internal/infrastructure/feed"
	"medreminder/internal/pkg/logger"

	"github.com/google/uuid"
)

// --- memMedicationRepository ---
var _ repository.MedicationRepository = (*memMedicationRepository)(nil)

// memMedicationRepository is an in-memory schedule store. The Func fields,
// when set, replace the matching operation so tests can inject failures.
type memMedicationRepository struct {
	mu   sync.Mutex
	docs map[string]*entity.Medication
	hub  *feed.Local

	CreateFunc func(ctx context.Context, ownerID string, m *entity.Medication) (string, error)
	UpdateFunc func(ctx context.Context, ownerID, id string, fields entity.MedicationFields) error

	CreateCallCount int32
	UpdateCallCount int32
}

func newMemMedicationRepository() *memMedicationRepository {
	return &memMedicationRepository{docs: make(map[string]*entity.Medication), hub: feed.NewLocal()}
}

func (r *memMedicationRepository) Create(ctx context.Context, ownerID string, m *entity.Medication) (string, error) {
	atomic.AddInt32(&r.CreateCallCount, 1)
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, ownerID, m)
	}
	r.mu.Lock()
	c := m.Clone()
	c.ID = uuid.NewString()
	c.OwnerID = ownerID
	r.docs[c.ID] = c
	r.mu.Unlock()
	_ = r.hub.Publish(ctx, ownerID)
	return c.ID, nil
}

func (r *memMedicationRepository) Update(ctx context.Context, ownerID, id string, fields entity.MedicationFields) error {
	atomic.AddInt32(&r.UpdateCallCount, 1)
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, ownerID, id, fields)
	}
	r.mu.Lock()
	m, ok := r.docs[id]
	if !ok || m.OwnerID != ownerID {
		r.mu.Unlock()
		return fmt.Errorf("medication %s: %w", id, repository.ErrNotFound)
	}
	fields.Apply(m)
	r.mu.Unlock()
	_ = r.hub.Publish(ctx, ownerID)
	return nil
}

func (r *memMedicationRepository) FindByID(_ context.Context, ownerID, id string) (*entity.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.docs[id]
	if !ok || m.OwnerID != ownerID {
		return nil, fmt.Errorf("medication %s: %w", id, repository.ErrNotFound)
	}
	return m.Clone(), nil
}

func (r *memMedicationRepository) FindByOwner(_ context.Context, ownerID string) ([]*entity.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*entity.Medication
	for _, m := range r.docs {
		if m.OwnerID == ownerID {
			list = append(list, m.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *memMedicationRepository) FindActive(_ context.Context) ([]*entity.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*entity.Medication
	for _, m := range r.docs {
		if m.IsActive && !m.IsDeleted {
			list = append(list, m.Clone())
		}
	}
	return list, nil
}

func (r *memMedicationRepository) Subscribe(ctx context.Context, ownerID string) (repository.Subscription, error) {
	return feed.Watch(ctx, r.hub, ownerID, func(ctx context.Context) (repository.Snapshot, error) {
		list, err := r.FindByOwner(ctx, ownerID)
		return repository.Snapshot(list), err
	}, logger.Nop())
}

// stored returns the stored copy of id, bypassing the Func overrides.
func (r *memMedicationRepository) stored(id string) *entity.Medication {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id].Clone()
}

// --- MockNotificationGateway ---
var _ NotificationGateway = (*MockNotificationGateway)(nil)

// MockNotificationGateway records live triggers. Permission defaults to granted.
type MockNotificationGateway struct {
	mu        sync.Mutex
	live      map[string]entity.Trigger
	cancelled []string
	next      int

	Denied        bool
	PermissionErr error
	// FailAt makes Schedule fail for triggers at these "HH:MM" times.
	FailAt map[string]bool

	PermissionCallCount int32
	ScheduleCallCount   int32
}

func newMockGateway() *MockNotificationGateway {
	return &MockNotificationGateway{live: make(map[string]entity.Trigger), FailAt: make(map[string]bool)}
}

func (g *MockNotificationGateway) RequestPermission(_ context.Context, _ string) (bool, error) {
	atomic.AddInt32(&g.PermissionCallCount, 1)
	if g.PermissionErr != nil {
		return false, g.PermissionErr
	}
	return !g.Denied, nil
}

func (g *MockNotificationGateway) Schedule(_ context.Context, _ string, trigger entity.Trigger) (string, error) {
	atomic.AddInt32(&g.ScheduleCallCount, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailAt[entity.At(trigger.Hour, trigger.Minute).String()] {
		return "", errors.New("gateway unavailable")
	}
	g.next++
	id := fmt.Sprintf("rem-%d", g.next)
	g.live[id] = trigger
	return id, nil
}

func (g *MockNotificationGateway) Cancel(_ context.Context, reminderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, reminderID)
	delete(g.live, reminderID)
	return nil
}

// liveTimes returns the "HH:MM" of every live trigger, sorted.
func (g *MockNotificationGateway) liveTimes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	times := make([]string, 0, len(g.live))
	for _, t := range g.live {
		times = append(times, entity.At(t.Hour, t.Minute).String())
	}
	sort.Strings(times)
	return times
}

func (g *MockNotificationGateway) isLive(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.live[id]
	return ok
}

func (g *MockNotificationGateway) cancelCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancelled)
}

// --- MockDeviceRepository ---
var _ repository.DeviceRepository = (*MockDeviceRepository)(nil)

// MockDeviceRepository is a mock implementation of DeviceRepository.
type MockDeviceRepository struct {
	UpsertFunc      func(ctx context.Context, device *entity.Device) error
	FindByOwnerFunc func(ctx context.Context, ownerID string) ([]*entity.Device, error)
	DeleteFunc      func(ctx context.Context, ownerID string, provider constant.Provider, target string) error

	UpsertCallCount int32
}

func (m *MockDeviceRepository) Upsert(ctx context.Context, device *entity.Device) error {
	atomic.AddInt32(&m.UpsertCallCount, 1)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, device)
	}
	return errors.New("UpsertFunc not implemented in mock")
}

func (m *MockDeviceRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entity.Device, error) {
	if m.FindByOwnerFunc != nil {
		return m.FindByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *MockDeviceRepository) Delete(ctx context.Context, ownerID string, provider constant.Provider, target string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, ownerID, provider, target)
	}
	return errors.New("DeleteFunc not implemented in mock")
}
