package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"medreminder/internal/application/dto"
	"medreminder/internal/application/service"
	"medreminder/internal/domain/entity"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// --- MockReminderScheduler ---
var _ service.ReminderScheduler = (*MockReminderScheduler)(nil)

type MockReminderScheduler struct {
	CreateRecordFunc     func(ctx context.Context, ownerID string, input dto.MedicationInput) (*dto.SaveResult, error)
	UpdateRecordFunc     func(ctx context.Context, ownerID, id string, input dto.MedicationInput) (*dto.SaveResult, error)
	SetActiveFunc        func(ctx context.Context, ownerID, id string, isActive bool) (*dto.SaveResult, error)
	MarkDeletedFunc      func(ctx context.Context, ownerID, id string) error
	ListActiveFunc       func(ctx context.Context, ownerID string) (service.MedicationFeed, error)
	RestoreRemindersFunc func(ctx context.Context) (int, error)
}

func (m *MockReminderScheduler) CreateRecord(ctx context.Context, ownerID string, input dto.MedicationInput) (*dto.SaveResult, error) {
	if m.CreateRecordFunc != nil {
		return m.CreateRecordFunc(ctx, ownerID, input)
	}
	return nil, errors.New("CreateRecordFunc not implemented in mock")
}

func (m *MockReminderScheduler) UpdateRecord(ctx context.Context, ownerID, id string, input dto.MedicationInput) (*dto.SaveResult, error) {
	if m.UpdateRecordFunc != nil {
		return m.UpdateRecordFunc(ctx, ownerID, id, input)
	}
	return nil, errors.New("UpdateRecordFunc not implemented in mock")
}

func (m *MockReminderScheduler) SetActive(ctx context.Context, ownerID, id string, isActive bool) (*dto.SaveResult, error) {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, ownerID, id, isActive)
	}
	return nil, errors.New("SetActiveFunc not implemented in mock")
}

func (m *MockReminderScheduler) MarkDeleted(ctx context.Context, ownerID, id string) error {
	if m.MarkDeletedFunc != nil {
		return m.MarkDeletedFunc(ctx, ownerID, id)
	}
	return errors.New("MarkDeletedFunc not implemented in mock")
}

func (m *MockReminderScheduler) ListActive(ctx context.Context, ownerID string) (service.MedicationFeed, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, ownerID)
	}
	return nil, errors.New("ListActiveFunc not implemented in mock")
}

func (m *MockReminderScheduler) RestoreReminders(ctx context.Context) (int, error) {
	if m.RestoreRemindersFunc != nil {
		return m.RestoreRemindersFunc(ctx)
	}
	return 0, nil
}

// staticFeed emits the given snapshots then blocks until Stop.
type staticFeed struct {
	ch      chan []*entity.Medication
	once    sync.Once
	stopped chan struct{}
}

func newStaticFeed(snapshots ...[]*entity.Medication) *staticFeed {
	f := &staticFeed{ch: make(chan []*entity.Medication, len(snapshots)), stopped: make(chan struct{})}
	for _, s := range snapshots {
		f.ch <- s
	}
	return f
}

func (f *staticFeed) C() <-chan []*entity.Medication { return f.ch }

func (f *staticFeed) Stop() { f.once.Do(func() { close(f.stopped) }) }

func (f *staticFeed) isStopped() bool {
	select {
	case <-f.stopped:
		return true
	default:
		return false
	}
}

// --- MockDeviceService ---
var _ service.DeviceService = (*MockDeviceService)(nil)

type MockDeviceService struct {
	RegisterFunc   func(ctx context.Context, ownerID string, req dto.DeviceRequest) (*entity.Device, error)
	UnregisterFunc func(ctx context.Context, ownerID string, req dto.DeviceRequest) error
	ListFunc       func(ctx context.Context, ownerID string) ([]*entity.Device, error)
}

func (m *MockDeviceService) Register(ctx context.Context, ownerID string, req dto.DeviceRequest) (*entity.Device, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, ownerID, req)
	}
	return nil, errors.New("RegisterFunc not implemented in mock")
}

func (m *MockDeviceService) Unregister(ctx context.Context, ownerID string, req dto.DeviceRequest) error {
	if m.UnregisterFunc != nil {
		return m.UnregisterFunc(ctx, ownerID, req)
	}
	return errors.New("UnregisterFunc not implemented in mock")
}

func (m *MockDeviceService) List(ctx context.Context, ownerID string) ([]*entity.Device, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, ownerID)
	}
	return nil, nil
}

// --- MockLineMessenger ---
var _ LineMessenger = (*MockLineMessenger)(nil)

type MockLineMessenger struct {
	Events   []*linebot.Event
	ParseErr error

	mu      sync.Mutex
	replies map[string][]string
}

func (m *MockLineMessenger) ParseRequest(*http.Request) ([]*linebot.Event, error) {
	return m.Events, m.ParseErr
}

func (m *MockLineMessenger) SendMessages(replyToken string, messages ...linebot.SendingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replies == nil {
		m.replies = make(map[string][]string)
	}
	for _, msg := range messages {
		if text, ok := msg.(*linebot.TextMessage); ok {
			m.replies[replyToken] = append(m.replies[replyToken], text.Text)
		}
	}
	return nil
}

func (m *MockLineMessenger) repliesTo(token string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replies[token]
}
